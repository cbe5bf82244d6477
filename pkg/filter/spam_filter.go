package filter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zpam/spam-nb/pkg/corpus"
	"github.com/zpam/spam-nb/pkg/evaluate"
	"github.com/zpam/spam-nb/pkg/learning"
)

// FilterResults contains the results of a directory run
type FilterResults struct {
	Total int
	Spam  int
	Ham   int

	// Placed counts documents copied or moved into an output directory
	Placed int
}

// SpamFilter sorts documents into spam and ham directories with a trained model
type SpamFilter struct {
	model   *learning.Model
	reader  learning.DocumentReader
	workers int
	logger  *zap.Logger

	// Move removes the source file instead of copying it
	Move bool
}

// NewSpamFilter creates a filter that classifies with model
func NewSpamFilter(model *learning.Model, reader learning.DocumentReader, workers int, logger *zap.Logger) *SpamFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpamFilter{model: model, reader: reader, workers: workers, logger: logger}
}

// ProcessEmails classifies every document in inputPath and places it in
// spamPath or hamPath. An empty destination, or one that is inputPath
// itself, leaves that class in place. Existing files in a destination are
// never overwritten.
func (sf *SpamFilter) ProcessEmails(ctx context.Context, inputPath, hamPath, spamPath string) (*FilterResults, error) {
	paths, err := corpus.List(inputPath)
	if err != nil {
		return nil, err
	}

	for _, dir := range []*string{&hamPath, &spamPath} {
		if *dir == "" {
			continue
		}
		if err := os.MkdirAll(*dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create output directory %s: %w", learning.ErrIO, *dir, err)
		}
		if sameDir(inputPath, *dir) {
			sf.logger.Debug("output directory is the input, leaving documents in place", zap.String("dir", *dir))
			*dir = ""
		}
	}
	if len(paths) == 0 {
		return &FilterResults{}, nil
	}

	predictions, err := evaluate.ClassifyPaths(ctx, sf.model, sf.reader, paths, sf.workers, nil)
	if err != nil {
		return nil, err
	}

	results := &FilterResults{Total: len(paths)}
	var placed int32

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(sf.workers, 1))
	for i, path := range paths {
		pred := predictions[i]
		dest := hamPath
		if pred.IsSpam {
			results.Spam++
			dest = spamPath
		} else {
			results.Ham++
		}
		if dest == "" {
			continue
		}

		g.Go(func() error {
			target := filepath.Join(dest, filepath.Base(path))
			if err := sf.place(path, target); err != nil {
				return fmt.Errorf("%w: failed to place %s: %w", learning.ErrIO, path, err)
			}
			atomic.AddInt32(&placed, 1)
			sf.logger.Debug("document filtered",
				zap.String("path", path),
				zap.String("label", pred.Label()),
				zap.Float64("p_spam", pred.PSpam))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results.Placed = int(atomic.LoadInt32(&placed))
	return results, nil
}

// sameDir reports whether a and b name the same existing directory
func sameDir(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// place copies or moves src to dst, failing if dst already exists
func (sf *SpamFilter) place(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, fs.ErrExist)
	}
	if sf.Move {
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if sf.Move {
		return os.Remove(src)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
