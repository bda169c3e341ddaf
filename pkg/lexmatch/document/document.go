// Package document holds a tokenized input text together with its matchable
// mask, the only mutable state of a matching pass.
package document

import "strings"

// Token is one word of a document with its normalized forms and byte offsets
// into the source text.
type Token struct {
	Text  string `json:"text"`
	Lower string `json:"lower"`
	Lemma string `json:"lemma"`
	Stem  string `json:"stem"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Span is a half-open token range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of tokens in the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one token.
func (s Span) Overlaps(o Span) bool {
	return s.Len() > 0 && o.Len() > 0 && s.Start < o.End && o.Start < s.End
}

// Mask tracks which tokens are still available to later stages.
// It is owned by a single document and is not safe for concurrent use.
type Mask struct {
	claimed []bool
}

// NewMask creates a mask of n matchable tokens.
func NewMask(n int) *Mask {
	return &Mask{claimed: make([]bool, n)}
}

// Len returns the number of positions.
func (m *Mask) Len() int { return len(m.claimed) }

// Matchable reports whether position i is in range and unclaimed.
func (m *Mask) Matchable(i int) bool {
	return i >= 0 && i < len(m.claimed) && !m.claimed[i]
}

// SpanMatchable reports whether every position of a non-empty in-range span
// is unclaimed. Empty spans are never matchable.
func (m *Mask) SpanMatchable(s Span) bool {
	if s.Len() == 0 || s.Start < 0 || s.End > len(m.claimed) {
		return false
	}
	for i := s.Start; i < s.End; i++ {
		if m.claimed[i] {
			return false
		}
	}
	return true
}

// Claim marks every in-range position of s as unavailable.
func (m *Mask) Claim(s Span) {
	for i := max(s.Start, 0); i < s.End && i < len(m.claimed); i++ {
		m.claimed[i] = true
	}
}

// Claimed returns the number of claimed positions.
func (m *Mask) Claimed() int {
	n := 0
	for _, c := range m.claimed {
		if c {
			n++
		}
	}
	return n
}

// Reset makes every position matchable again.
func (m *Mask) Reset() {
	clear(m.claimed)
}

// Document is a tokenized text plus its mask.
type Document struct {
	Source string
	Tokens []Token
	mask   *Mask
}

// New wraps tokens produced by any tokenizer.
func New(source string, tokens []Token) *Document {
	return &Document{Source: source, Tokens: tokens, mask: NewMask(len(tokens))}
}

// FromWords builds a document from pre-split words, using each word as its
// own lowercase, lemma and stem. Offsets assume single-space separation.
func FromWords(words ...string) *Document {
	tokens := make([]Token, len(words))
	offset := 0
	for i, w := range words {
		lw := strings.ToLower(w)
		tokens[i] = Token{Text: w, Lower: lw, Lemma: lw, Stem: lw, Start: offset, End: offset + len(w)}
		offset += len(w) + 1
	}
	return New(strings.Join(words, " "), tokens)
}

// Len returns the token count.
func (d *Document) Len() int { return len(d.Tokens) }

// Mask returns the document's matchable mask.
func (d *Document) Mask() *Mask { return d.mask }

// Join concatenates field(token) over span with single spaces.
func (d *Document) Join(s Span, field func(Token) string) string {
	if s.Len() == 0 || s.Start < 0 || s.End > len(d.Tokens) {
		return ""
	}
	parts := make([]string, 0, s.Len())
	for _, tok := range d.Tokens[s.Start:s.End] {
		parts = append(parts, field(tok))
	}
	return strings.Join(parts, " ")
}

// Field selectors for Join.
func TextOf(t Token) string  { return t.Text }
func LowerOf(t Token) string { return t.Lower }
func LemmaOf(t Token) string { return t.Lemma }
func StemOf(t Token) string  { return t.Stem }

// MatchedText returns the source text covered by span, or the joined token
// text when offsets are unavailable.
func (d *Document) MatchedText(s Span) string {
	if s.Len() == 0 || s.Start < 0 || s.End > len(d.Tokens) {
		return ""
	}
	start, end := d.Tokens[s.Start].Start, d.Tokens[s.End-1].End
	if start >= 0 && end <= len(d.Source) && start < end {
		return d.Source[start:end]
	}
	return d.Join(s, TextOf)
}
