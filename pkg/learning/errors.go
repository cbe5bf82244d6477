package learning

import "errors"

// Error kinds. Every error returned by this module that belongs to one of
// these kinds wraps the sentinel, so callers can match with errors.Is.
var (
	// ErrIO means a file or directory was missing or unreadable
	ErrIO = errors.New("io error")

	// ErrInvalidModel means a model violates its invariants: a probability
	// outside (0,1) or vectors whose length disagrees with the vocabulary
	ErrInvalidModel = errors.New("invalid model")

	// ErrNotFound means no persisted model exists under the requested name
	ErrNotFound = errors.New("model not found")
)
