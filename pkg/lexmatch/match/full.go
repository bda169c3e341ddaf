package match

import (
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// FullMatcher claims exact multi-token occurrences of high_forms.full,
// preferring the longest phrase at each position.
type FullMatcher struct {
	idx *phraseIndex
}

// NewFullMatcher indexes the full form of every multi-token entry.
// Single-token entries are left to the uni-gram stage.
func NewFullMatcher(db surface.DB) *FullMatcher {
	idx := newPhraseIndex()
	for _, id := range db.IDs() {
		e := db[id]
		if e.TokenCount > 1 && e.HighForms.Full != "" {
			idx.add(strings.ToLower(e.HighForms.Full), id)
		}
	}
	idx.seal()
	return &FullMatcher{idx: idx}
}

// Kind implements Stage.
func (m *FullMatcher) Kind() Kind { return KindFull }

// Match implements Stage. Windows are compared on lemmas, then on lowercase
// text.
func (m *FullMatcher) Match(doc *document.Document) []Candidate {
	return claimLongest(doc, m.idx, 2, KindFull, document.LemmaOf, document.LowerOf)
}
