package learning

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// MinWordLength is the shortest word the vocabulary loader keeps
const MinWordLength = 3

// Vocabulary is the ordered list of feature words. Position i in the list is
// feature i in every vector built against it.
type Vocabulary struct {
	words []string
}

// NewVocabulary creates a vocabulary from already-normalized words. The slice is copied.
func NewVocabulary(words []string) *Vocabulary {
	w := make([]string, len(words))
	copy(w, words)
	return &Vocabulary{words: w}
}

// Len returns the feature dimensionality
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.words)
}

// Word returns the word at feature index i
func (v *Vocabulary) Word(i int) string {
	return v.words[i]
}

// Words returns a copy of the ordered word list
func (v *Vocabulary) Words() []string {
	w := make([]string, len(v.words))
	copy(w, v.words)
	return w
}

// Equal reports whether both vocabularies hold the same words in the same order
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if v.Len() != other.Len() {
		return false
	}
	for i := range v.words {
		if v.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// LoadVocabulary reads a newline-delimited word list.
// Words are lowercased and anything shorter than minLength characters is
// dropped, which also discards the empty entry after a final newline.
func LoadVocabulary(r io.Reader, minLength int) (*Vocabulary, error) {
	if minLength <= 0 {
		minLength = MinWordLength
	}

	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if utf8.RuneCountInString(word) < minLength {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read vocabulary: %w", ErrIO, err)
	}

	return &Vocabulary{words: words}, nil
}

// LoadVocabularyFile loads a vocabulary from a file on disk
func LoadVocabularyFile(path string, minLength int) (*Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open vocabulary file %s: %w", ErrIO, path, err)
	}
	defer file.Close()

	v, err := LoadVocabulary(file, minLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
