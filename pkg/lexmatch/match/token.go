package match

import (
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/stoplist"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// TokenMatcher proposes single tokens that equal a word of a long
// (match_on_tokens) entry. Each candidate carries 1/token_count as its
// score; the resolver aggregates neighbouring hits. Nothing is claimed.
type TokenMatcher struct {
	words map[string][]string
	db    surface.DB
	stops *stoplist.Manager
}

// NewTokenMatcher indexes the words of every match_on_tokens entry,
// skipping stopwords.
func NewTokenMatcher(db surface.DB, stops *stoplist.Manager) *TokenMatcher {
	m := &TokenMatcher{words: make(map[string][]string), db: db, stops: stops}
	for _, id := range db.IDs() {
		e := db[id]
		if !e.MatchOnTokens {
			continue
		}
		seen := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(e.HighForms.Full)) {
			if seen[w] || stops.IsStop(w) {
				continue
			}
			seen[w] = true
			m.words[w] = append(m.words[w], id)
		}
	}
	return m
}

// Kind implements Stage.
func (m *TokenMatcher) Kind() Kind { return KindToken }

// Match implements Stage.
func (m *TokenMatcher) Match(doc *document.Document) []Candidate {
	if len(m.words) == 0 {
		return nil
	}
	var out []Candidate
	mask := doc.Mask()
	for i, tok := range doc.Tokens {
		if !mask.Matchable(i) || m.stops.IsStop(tok.Lower) {
			continue
		}
		ids := m.words[tok.Lemma]
		if len(ids) == 0 {
			ids = m.words[tok.Lower]
		}
		span := document.Span{Start: i, End: i + 1}
		for _, id := range ids {
			out = append(out, newCandidate(doc, id, span, KindToken, 1/float64(m.db[id].TokenCount)))
		}
	}
	return out
}
