package match

import (
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// Canonical fuzzy thresholds.
const (
	DefaultMinPhraseSim = 0.90
	DefaultMinTokenSim  = 0.80
	DefaultMinHeadSim   = 0.85
	DefaultMaxCharDiff  = 3
)

// FuzzyConfig holds the gates a window must pass to be accepted as a typo of
// an entry phrase.
type FuzzyConfig struct {
	MinPhraseSim float64 `yaml:"min_phrase_sim"`
	MinTokenSim  float64 `yaml:"min_token_sim"`
	MinHeadSim   float64 `yaml:"min_head_sim"`
	MaxCharDiff  int     `yaml:"max_char_diff"`
}

// DefaultFuzzyConfig returns the canonical thresholds.
func DefaultFuzzyConfig() FuzzyConfig {
	return FuzzyConfig{
		MinPhraseSim: DefaultMinPhraseSim,
		MinTokenSim:  DefaultMinTokenSim,
		MinHeadSim:   DefaultMinHeadSim,
		MaxCharDiff:  DefaultMaxCharDiff,
	}
}

// Similarity is the Jaro-Winkler similarity of a and b in [0,1].
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

type fuzzyEntry struct {
	id     string
	phrase string
	words  []string
	runes  int
}

// FuzzyMatcher claims windows that are near-spellings of a multi-token entry.
// A window always has exactly the entry's token count.
type FuzzyMatcher struct {
	cfg    FuzzyConfig
	byHead map[rune][]fuzzyEntry
}

// NewFuzzyMatcher indexes multi-token entries by the first rune of their
// head token.
func NewFuzzyMatcher(db surface.DB, cfg FuzzyConfig) *FuzzyMatcher {
	m := &FuzzyMatcher{cfg: cfg, byHead: make(map[rune][]fuzzyEntry)}
	for _, id := range db.IDs() {
		e := db[id]
		words := strings.Fields(strings.ToLower(e.HighForms.Full))
		if e.TokenCount < 2 || len(words) != e.TokenCount {
			continue
		}
		phrase := strings.Join(words, " ")
		head, _ := utf8.DecodeRuneInString(words[0])
		m.byHead[head] = append(m.byHead[head], fuzzyEntry{
			id:     id,
			phrase: phrase,
			words:  words,
			runes:  utf8.RuneCountInString(phrase),
		})
	}
	return m
}

// Kind implements Stage.
func (m *FuzzyMatcher) Kind() Kind { return KindFuzzy }

// Match implements Stage. At each position the entry with the best phrase
// similarity wins; ties go to the longer entry, then to the smaller id.
func (m *FuzzyMatcher) Match(doc *document.Document) []Candidate {
	if len(m.byHead) == 0 {
		return nil
	}
	var out []Candidate
	mask := doc.Mask()

	for i := 0; i < doc.Len(); {
		if !mask.Matchable(i) {
			i++
			continue
		}
		head, _ := utf8.DecodeRuneInString(doc.Tokens[i].Lower)

		var (
			best     *fuzzyEntry
			bestSpan document.Span
			bestSim  float64
		)
		for k := range m.byHead[head] {
			entry := &m.byHead[head][k]
			span := document.Span{Start: i, End: i + len(entry.words)}
			if span.End > doc.Len() || !mask.SpanMatchable(span) {
				continue
			}
			sim, ok := m.accept(doc, span, entry)
			if !ok {
				continue
			}
			if best == nil || sim > bestSim || (sim == bestSim && len(entry.words) > len(best.words)) {
				best, bestSpan, bestSim = entry, span, sim
			}
		}
		if best == nil {
			i++
			continue
		}
		out = append(out, newCandidate(doc, best.id, bestSpan, KindFuzzy, bestSim))
		mask.Claim(bestSpan)
		i = bestSpan.End
	}
	return out
}

// accept applies the gates cheapest first and returns the phrase similarity.
func (m *FuzzyMatcher) accept(doc *document.Document, span document.Span, entry *fuzzyEntry) (float64, bool) {
	toks := doc.Tokens[span.Start:span.End]
	if Similarity(toks[0].Lower, entry.words[0]) < m.cfg.MinHeadSim {
		return 0, false
	}
	window := doc.Join(span, document.LowerOf)
	if diff := utf8.RuneCountInString(window) - entry.runes; diff > m.cfg.MaxCharDiff || -diff > m.cfg.MaxCharDiff {
		return 0, false
	}
	sim := Similarity(window, entry.phrase)
	if sim < m.cfg.MinPhraseSim {
		return 0, false
	}
	for j, tok := range toks {
		if Similarity(tok.Lower, entry.words[j]) < m.cfg.MinTokenSim {
			return 0, false
		}
	}
	return sim, true
}
