package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zpam/spam-nb/pkg/learning"
)

const fileExt = ".json"

// FileStore keeps one JSON file per model in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create model directory %s: %w", learning.ErrIO, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes the model to a temporary file and renames it into place, so
// readers never see a partial model
func (s *FileStore) Save(_ context.Context, name string, model *learning.Model) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := Encode(model)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary model file: %w", learning.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write model %s: %w", learning.ErrIO, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to write model %s: %w", learning.ErrIO, name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("%w: failed to save model %s: %w", learning.ErrIO, name, err)
	}
	return nil
}

// Load reads a model
func (s *FileStore) Load(_ context.Context, name string) (*learning.Model, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read model %s: %w", learning.ErrIO, name, err)
	}
	return Decode(data)
}

// Delete removes a model
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return notFound(name)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to delete model %s: %w", learning.ErrIO, name, err)
	}
	return nil
}

// List returns the stored model names in order
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %w", learning.ErrIO, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op
func (s *FileStore) Close() error { return nil }
