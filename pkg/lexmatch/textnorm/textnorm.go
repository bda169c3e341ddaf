// Package textnorm holds the word-level normalization shared by catalog
// processing and document tokenization. Both sides must agree on word
// boundaries, lemmas and stems or exact matching silently fails.
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lemmatizer maps a lowercase word to its dictionary form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Stemmer maps a lowercase word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// IsWordRune reports whether r belongs inside a word. '+' and '#' are kept
// so names like "c++" and "c#" survive.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

// InWord reports whether r extends a word. Combining marks only continue
// a word that has already started.
func InWord(r rune, started bool) bool {
	return IsWordRune(r) || (started && unicode.Is(unicode.Mn, r))
}

// Split breaks s into words on the same boundaries the document tokenizer
// uses, keeping case and marks as written.
func Split(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if InWord(r, start >= 0) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}

// SurfaceKey joins the words of s with single spaces, so "AT&T" and
// "Node.js" line up with the space-joined text of their token windows.
func SurfaceKey(s string) string {
	return strings.Join(Split(s), " ")
}

// Fold strips combining marks ("café" -> "cafe"). On transform failure the
// input is returned unchanged.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Words folds, lowercases and splits s on every non-word rune.
func Words(s string) []string {
	s = strings.ToLower(Fold(s))
	return strings.FieldsFunc(s, func(r rune) bool { return !IsWordRune(r) })
}

// RuleLemmatizer is a small suffix-rule lemmatizer for English plurals.
// It only has to be consistent between catalog and documents.
type RuleLemmatizer struct{}

// Lemma implements Lemmatizer.
func (RuleLemmatizer) Lemma(word string) string {
	n := len(word)
	switch {
	case n <= 3:
		return word
	case strings.HasSuffix(word, "ies") && n > 4:
		return word[:n-3] + "y"
	case strings.HasSuffix(word, "sses"):
		return word[:n-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:n-1]
	}
	return word
}

// Snowball stems with the Snowball algorithm and caches results.
// Safe for concurrent use.
type Snowball struct {
	language string
	cache    sync.Map
}

// NewSnowball creates a stemmer for language ("english", "spanish", ...).
func NewSnowball(language string) *Snowball {
	if language == "" {
		language = "english"
	}
	return &Snowball{language: language}
}

// Stem implements Stemmer. Words the stemmer rejects are returned as-is.
func (s *Snowball) Stem(word string) string {
	if word == "" {
		return ""
	}
	if v, ok := s.cache.Load(word); ok {
		return v.(string)
	}
	stemmed, err := snowball.Stem(word, s.language, true)
	if err != nil || stemmed == "" {
		stemmed = word
	}
	s.cache.Store(word, stemmed)
	return stemmed
}

// Apply runs fn over each space-separated word of phrase.
func Apply(phrase string, fn func(string) string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = fn(w)
	}
	return strings.Join(words, " ")
}
