package match

import (
	"strings"
	"unicode"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/textnorm"
)

// LowMatcher proposes spans equal to a low form. Lowercase forms are stems and
// are compared against token stems. Forms with capitals are acronyms and are
// compared case-sensitively against the raw text. Nothing is claimed.
type LowMatcher struct {
	stems    *phraseIndex
	acronyms *phraseIndex
	db       surface.DB
}

// NewLowMatcher indexes every low form of every entry.
func NewLowMatcher(db surface.DB) *LowMatcher {
	m := &LowMatcher{stems: newPhraseIndex(), acronyms: newPhraseIndex(), db: db}
	for _, id := range db.IDs() {
		for _, form := range db[id].LowForms {
			if hasUpper(form) {
				m.acronyms.add(textnorm.SurfaceKey(form), id)
			} else {
				m.stems.add(form, id)
			}
		}
	}
	m.stems.seal()
	m.acronyms.seal()
	return m
}

// Kind implements Stage.
func (m *LowMatcher) Kind() Kind { return KindLow }

// Match implements Stage. Candidate scores carry the share of the entity the
// matched form stands for; the resolver uses it as coverage.
func (m *LowMatcher) Match(doc *document.Document) []Candidate {
	out := collectAll(doc, m.stems, KindLow, m.stemCoverage, document.StemOf)
	return append(out, collectAll(doc, m.acronyms, KindLow, func(string, document.Span) float64 { return 1 }, document.TextOf)...)
}

func (m *LowMatcher) stemCoverage(id string, span document.Span) float64 {
	count := m.db[id].TokenCount
	if count <= 0 {
		return 0
	}
	return min(float64(span.Len())/float64(count), 1)
}

func hasUpper(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}
