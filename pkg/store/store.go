// Package store persists trained models under a name.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/learning"
)

// Store saves and restores models keyed by name. Load and Delete return an
// error wrapping learning.ErrNotFound when no model has that name.
type Store interface {
	Save(ctx context.Context, name string, model *learning.Model) error
	Load(ctx context.Context, name string) (*learning.Model, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// ValidateName checks that name can be used as a key by every backend
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid model name %q: use letters, digits, '.', '_' or '-', not starting with '.'", name)
	}
	return nil
}

// New opens the backend selected by cfg.Backend
func New(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "file", "":
		s, err = NewFileStore(cfg.Dir)
	case "redis":
		s, err = NewRedisStore(ctx, cfg.Redis)
	case "badger":
		s, err = NewBadgerStore(cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("model store opened", zap.String("backend", cfg.Backend))
	return s, nil
}

// Encode serializes a model as JSON
func Encode(model *learning.Model) ([]byte, error) {
	data, err := json.Marshal(model.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return data, nil
}

// Decode restores a model, re-checking every invariant
func Decode(data []byte) (*learning.Model, error) {
	var snap learning.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode model: %w", learning.ErrInvalidModel, err)
	}
	return learning.FromSnapshot(snap)
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", learning.ErrNotFound, name)
}
