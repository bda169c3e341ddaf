package match

import (
	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/textnorm"
)

// AbbreviationMatcher claims case-sensitive occurrences of high_forms.abv.
type AbbreviationMatcher struct {
	idx *phraseIndex
}

// NewAbbreviationMatcher indexes every entry abbreviation as written, split
// on token boundaries so "R&D" spans two tokens.
func NewAbbreviationMatcher(db surface.DB) *AbbreviationMatcher {
	idx := newPhraseIndex()
	for _, id := range db.IDs() {
		if abv := db[id].HighForms.Abv; abv != "" {
			idx.add(textnorm.SurfaceKey(abv), id)
		}
	}
	idx.seal()
	return &AbbreviationMatcher{idx: idx}
}

// Kind implements Stage.
func (m *AbbreviationMatcher) Kind() Kind { return KindAbbreviation }

// Match implements Stage.
func (m *AbbreviationMatcher) Match(doc *document.Document) []Candidate {
	return claimLongest(doc, m.idx, 1, KindAbbreviation, document.TextOf)
}
