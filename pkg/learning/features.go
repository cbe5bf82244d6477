package learning

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Punctuation is the fixed set of characters stripped from every token
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var lineBreaks = strings.NewReplacer("\n", " ", "\r", " ")

func isPunctuation(r rune) bool {
	return r < 0x80 && strings.ContainsRune(Punctuation, r)
}

// Tokenize lowercases text, turns line breaks into spaces, splits on the
// space character and strips punctuation from each token. Tokens that end up
// empty are dropped.
func Tokenize(text string) []string {
	text = lineBreaks.Replace(strings.ToLower(text))

	parts := strings.Split(text, " ")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.Map(func(r rune) rune {
			if isPunctuation(r) {
				return -1
			}
			return r
		}, part)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Extract maps a document to its presence vector over vocab.
// The result always has vocab.Len() entries; an empty document gives an
// all-false vector.
func Extract(text string, vocab *Vocabulary) []bool {
	x := make([]bool, vocab.Len())
	if text == "" {
		return x
	}

	present := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		present[token] = struct{}{}
	}

	for i, word := range vocab.words {
		if _, ok := present[word]; ok {
			x[i] = true
		}
	}
	return x
}

// DecodeDocument turns raw file bytes into text. Invalid UTF-8 sequences are
// replaced with U+FFFD instead of failing, so noisy input stays classifiable.
func DecodeDocument(raw []byte) string {
	decoded, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(decoded)
}
