package match

import (
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// UniMatcher proposes single tokens equal to the full form of a single-token
// entry. It does not claim; the resolver decides.
type UniMatcher struct {
	idx *phraseIndex
}

// NewUniMatcher indexes the full form of every single-token entry.
func NewUniMatcher(db surface.DB) *UniMatcher {
	idx := newPhraseIndex()
	for _, id := range db.IDs() {
		e := db[id]
		if e.TokenCount == 1 && e.HighForms.Full != "" {
			idx.add(strings.ToLower(e.HighForms.Full), id)
		}
	}
	idx.seal()
	return &UniMatcher{idx: idx}
}

// Kind implements Stage.
func (m *UniMatcher) Kind() Kind { return KindUni }

// Match implements Stage.
func (m *UniMatcher) Match(doc *document.Document) []Candidate {
	if m.idx.size() == 0 {
		return nil
	}
	var out []Candidate
	mask := doc.Mask()
	for i, tok := range doc.Tokens {
		if !mask.Matchable(i) {
			continue
		}
		ids := m.idx.lookup(tok.Lower)
		if len(ids) == 0 {
			ids = m.idx.lookup(tok.Lemma)
		}
		span := document.Span{Start: i, End: i + 1}
		for _, id := range ids {
			out = append(out, newCandidate(doc, id, span, KindUni, 1))
		}
	}
	return out
}
