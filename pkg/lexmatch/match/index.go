package match

import (
	"sort"
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
)

// phraseIndex maps a space-joined phrase to the ids of entities carrying it.
type phraseIndex struct {
	forms  map[string][]string
	maxLen int
}

func newPhraseIndex() *phraseIndex {
	return &phraseIndex{forms: make(map[string][]string)}
}

func (p *phraseIndex) add(phrase, id string) {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return
	}
	key := strings.Join(words, " ")
	for _, existing := range p.forms[key] {
		if existing == id {
			return
		}
	}
	p.forms[key] = append(p.forms[key], id)
	if len(words) > p.maxLen {
		p.maxLen = len(words)
	}
}

// seal sorts id lists so lookups are deterministic.
func (p *phraseIndex) seal() {
	for _, ids := range p.forms {
		sort.Strings(ids)
	}
}

func (p *phraseIndex) lookup(key string) []string {
	return p.forms[key]
}

func (p *phraseIndex) size() int { return len(p.forms) }

// claimLongest scans left to right, trying the widest window first. The
// first window whose key (under any of the selectors) is indexed emits one
// candidate per id and claims the window.
func claimLongest(doc *document.Document, idx *phraseIndex, minWidth int, kind Kind, selectors ...func(document.Token) string) []Candidate {
	var out []Candidate
	mask := doc.Mask()
	n := doc.Len()

	for i := 0; i < n; {
		width := matchAt(doc, idx, i, minWidth, selectors)
		if width == 0 {
			i++
			continue
		}
		span := document.Span{Start: i, End: i + width}
		for _, id := range lookupAny(doc, idx, span, selectors) {
			out = append(out, newCandidate(doc, id, span, kind, 1))
		}
		mask.Claim(span)
		i += width
	}
	return out
}

func matchAt(doc *document.Document, idx *phraseIndex, i, minWidth int, selectors []func(document.Token) string) int {
	mask := doc.Mask()
	for width := min(idx.maxLen, doc.Len()-i); width >= minWidth; width-- {
		span := document.Span{Start: i, End: i + width}
		if !mask.SpanMatchable(span) {
			continue
		}
		if len(lookupAny(doc, idx, span, selectors)) > 0 {
			return width
		}
	}
	return 0
}

// lookupAny returns the ids found under the first selector that hits.
func lookupAny(doc *document.Document, idx *phraseIndex, span document.Span, selectors []func(document.Token) string) []string {
	for _, sel := range selectors {
		if ids := idx.lookup(doc.Join(span, sel)); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// collectAll emits a candidate for every matchable window of every width
// whose key is indexed, without claiming anything.
func collectAll(doc *document.Document, idx *phraseIndex, kind Kind, score func(id string, span document.Span) float64, selectors ...func(document.Token) string) []Candidate {
	var out []Candidate
	mask := doc.Mask()
	n := doc.Len()

	for i := 0; i < n; i++ {
		for width := min(idx.maxLen, n-i); width >= 1; width-- {
			span := document.Span{Start: i, End: i + width}
			if !mask.SpanMatchable(span) {
				continue
			}
			seen := make(map[string]bool)
			for _, sel := range selectors {
				for _, id := range idx.lookup(doc.Join(span, sel)) {
					if seen[id] {
						continue
					}
					seen[id] = true
					out = append(out, newCandidate(doc, id, span, kind, score(id, span)))
				}
			}
		}
	}
	return out
}
