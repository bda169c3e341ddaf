package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cognicore/lexmatch/pkg/lexmatch/textnorm"
)

var (
	descriptionPattern   = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	trailingParenPattern = regexp.MustCompile(`\(([^)]+)\)\s*$`)
)

const maxShortAbbreviation = 8

// Normalizer cleans, lemmatizes and stems raw records.
type Normalizer struct {
	lemmatizer textnorm.Lemmatizer
	stemmer    textnorm.Stemmer
}

// NewNormalizer creates a normalizer. Nil arguments fall back to the rule
// lemmatizer and the English Snowball stemmer.
func NewNormalizer(lem textnorm.Lemmatizer, stem textnorm.Stemmer) *Normalizer {
	if lem == nil {
		lem = textnorm.RuleLemmatizer{}
	}
	if stem == nil {
		stem = textnorm.NewSnowball("english")
	}
	return &Normalizer{lemmatizer: lem, stemmer: stem}
}

// Lemmatizer returns the lemmatizer in use, so tokenizers can share it.
func (n *Normalizer) Lemmatizer() textnorm.Lemmatizer { return n.lemmatizer }

// Stemmer returns the stemmer in use.
func (n *Normalizer) Stemmer() textnorm.Stemmer { return n.stemmer }

// Report counts what Process kept and dropped.
type Report struct {
	Processed int
	Skipped   int
}

// Process normalizes every raw record. Records without an id, with a
// duplicate id, or whose name is empty after cleaning are skipped and counted.
// Output order follows input order.
func (n *Normalizer) Process(raws []RawEntity) ([]Entity, Report) {
	var rep Report
	out := make([]Entity, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		id := strings.TrimSpace(string(raw.ID))
		if id == "" {
			rep.Skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			rep.Skipped++
			continue
		}
		e, ok := n.Normalize(raw)
		if !ok {
			rep.Skipped++
			continue
		}
		seen[id] = struct{}{}
		out = append(out, e)
	}
	rep.Processed = len(out)
	return out, rep
}

// Normalize builds one canonical entity. ok is false when nothing remains of
// the name after cleaning.
func (n *Normalizer) Normalize(raw RawEntity) (Entity, bool) {
	cleaned := Clean(RemoveDescription(raw.Name))
	if cleaned == "" {
		return Entity{}, false
	}
	count := len(strings.Fields(cleaned))
	return Entity{
		ID:             strings.TrimSpace(string(raw.ID)),
		Name:           raw.Name,
		Type:           string(raw.Type),
		CleanedName:    cleaned,
		TokenCount:     count,
		LemmatizedForm: textnorm.Apply(cleaned, n.lemmatizer.Lemma),
		StemmedForm:    textnorm.Apply(cleaned, n.stemmer.Stem),
		Abbreviation:   ExtractAbbreviation(raw.Name),
		MatchOnStemmed: count == 1,
	}, true
}

// Clean lowercases, folds diacritics, drops punctuation and collapses spaces.
func Clean(s string) string {
	return strings.Join(textnorm.Words(s), " ")
}

// RemoveDescription drops parenthesized descriptions:
// "Python (Programming Language)" -> "Python".
func RemoveDescription(s string) string {
	return strings.TrimSpace(descriptionPattern.ReplaceAllString(s, " "))
}

// ExtractAbbreviation returns the trailing parenthetical of a raw name when it
// looks like an abbreviation: no lowercase letters, or a single short word.
func ExtractAbbreviation(raw string) string {
	m := trailingParenPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	candidate := strings.TrimSpace(m[1])
	if candidate == "" {
		return ""
	}
	if !hasLower(candidate) {
		return candidate
	}
	if len([]rune(candidate)) <= maxShortAbbreviation && !strings.ContainsAny(candidate, " \t") {
		return candidate
	}
	return ""
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
