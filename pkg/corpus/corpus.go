// Package corpus lists labelled document directories and reads documents
// from them.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zpam/spam-nb/pkg/email"
	"github.com/zpam/spam-nb/pkg/learning"
)

// Document formats
const (
	FormatText  = "text"
	FormatEmail = "email"
)

// List returns the regular files directly inside dir, sorted by name.
// Hidden files and subdirectories are skipped.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list corpus %s: %w", learning.ErrIO, dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Reader loads documents from disk in one format. It implements
// learning.DocumentReader and is safe for concurrent use.
type Reader struct {
	format string
	parser *email.Parser
}

// NewReader returns a reader for format ("text" or "email")
func NewReader(format string) (*Reader, error) {
	switch format {
	case FormatText, "":
		return &Reader{format: FormatText}, nil
	case FormatEmail:
		return &Reader{format: FormatEmail, parser: email.NewParser()}, nil
	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
}

// ReadDocument returns the text of the document at path. Invalid UTF-8 is
// replaced rather than rejected.
func (r *Reader) ReadDocument(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read document %s: %w", learning.ErrIO, path, err)
	}
	return r.Decode(raw), nil
}

// Decode turns raw bytes in the reader's format into document text. Email
// that fails to parse falls back to its raw text.
func (r *Reader) Decode(raw []byte) string {
	if r.format == FormatEmail {
		if msg, err := r.parser.ParseBytes(raw); err == nil {
			return learning.DecodeDocument([]byte(msg.Text()))
		}
	}
	return learning.DecodeDocument(raw)
}
