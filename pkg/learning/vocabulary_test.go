package learning

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadVocabulary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		minLen   int
		expected []string
	}{
		{
			name:     "Lowercases and keeps order",
			input:    "Free\nMONEY\nmeeting\n",
			expected: []string{"free", "money", "meeting"},
		},
		{
			name:     "Drops short words",
			input:    "a\nto\nthe\nnow\nit\n",
			expected: []string{"the", "now"},
		},
		{
			name:     "Trailing newline adds no entry",
			input:    "alpha\nbeta\n\n",
			expected: []string{"alpha", "beta"},
		},
		{
			name:     "Windows line endings",
			input:    "alpha\r\nbeta\r\n",
			expected: []string{"alpha", "beta"},
		},
		{
			name:     "Custom minimum length",
			input:    "abc\nabcd\nabcde\n",
			minLen:   4,
			expected: []string{"abcd", "abcde"},
		},
		{
			name:     "Length counts characters not bytes",
			input:    "été\nçà\n",
			expected: []string{"été"},
		},
		{
			name:     "Empty source",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vocab, err := LoadVocabulary(strings.NewReader(tt.input), tt.minLen)
			if err != nil {
				t.Fatalf("LoadVocabulary() error = %v", err)
			}
			got := vocab.Words()
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Words() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadVocabularyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(path, []byte("free\nmoney\nmeeting\n"), 0644); err != nil {
		t.Fatalf("Failed to write vocabulary: %v", err)
	}

	vocab, err := LoadVocabularyFile(path, MinWordLength)
	if err != nil {
		t.Fatalf("LoadVocabularyFile() error = %v", err)
	}
	if vocab.Len() != 3 {
		t.Errorf("Len() = %d, want 3", vocab.Len())
	}

	_, err = LoadVocabularyFile(filepath.Join(dir, "missing.txt"), MinWordLength)
	if !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO for missing file, got %v", err)
	}
}

func TestVocabularyCopies(t *testing.T) {
	words := []string{"free", "money"}
	vocab := NewVocabulary(words)
	words[0] = "changed"

	if vocab.Word(0) != "free" {
		t.Errorf("Vocabulary shares its input slice")
	}

	out := vocab.Words()
	out[1] = "changed"
	if vocab.Word(1) != "money" {
		t.Errorf("Words() exposes internal slice")
	}
}

func TestVocabularyEqual(t *testing.T) {
	a := NewVocabulary([]string{"free", "money"})
	b := NewVocabulary([]string{"free", "money"})
	c := NewVocabulary([]string{"money", "free"})

	if !a.Equal(b) {
		t.Error("Identical vocabularies should be equal")
	}
	if a.Equal(c) {
		t.Error("Order must matter for equality")
	}
	if a.Equal(NewVocabulary(nil)) {
		t.Error("Different lengths should not be equal")
	}
}
