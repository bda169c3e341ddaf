// Package resolve turns the non-authoritative candidates of a pipeline run
// (uni, low and token kinds) into a non-overlapping, scored selection.
package resolve

import (
	"sort"
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/match"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// DefaultMaxGap is how many unrelated tokens may separate two token hits of
// the same entity while still counting as one occurrence.
const DefaultMaxGap = 1

// Config tunes grouping of token-level hits.
type Config struct {
	MaxGap int `yaml:"max_gap"`
}

// DefaultConfig returns the canonical resolver settings.
func DefaultConfig() Config {
	return Config{MaxGap: DefaultMaxGap}
}

// Resolver scores candidates by coverage and selects a maximal
// non-conflicting subset. It holds no per-document state.
type Resolver struct {
	cfg Config
}

// New creates a resolver. A negative MaxGap is treated as zero.
func New(cfg Config) *Resolver {
	if cfg.MaxGap < 0 {
		cfg.MaxGap = 0
	}
	return &Resolver{cfg: cfg}
}

type scored struct {
	cand  match.Candidate
	count int
	order int
}

// Resolve scores cands against db, drops those below threshold, and accepts
// the survivors greedily by score, then entity token count, then input
// order. Authoritative kinds are ignored. The result is ordered by span
// start.
func (r *Resolver) Resolve(doc *document.Document, db surface.DB, cands []match.Candidate, threshold float64) []match.Candidate {
	var pool []scored
	var tokens []match.Candidate

	for _, c := range cands {
		e, ok := db[c.EntityID]
		if !ok {
			continue
		}
		switch c.Kind {
		case match.KindUni:
			c.Score = 1
		case match.KindLow:
			c.Score = lowCoverage(doc, e, c.Span)
		case match.KindToken:
			tokens = append(tokens, c)
			continue
		default:
			continue
		}
		pool = append(pool, scored{cand: c, count: e.TokenCount})
	}
	for _, c := range r.groupTokens(doc, db, tokens) {
		pool = append(pool, scored{cand: c, count: db[c.EntityID].TokenCount})
	}

	kept := pool[:0]
	for i, s := range pool {
		s.cand.Score = match.Round3(s.cand.Score)
		s.order = i
		if s.cand.Score >= threshold {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.cand.Score != b.cand.Score {
			return a.cand.Score > b.cand.Score
		}
		if a.count != b.count {
			return a.count > b.count
		}
		return a.order < b.order
	})

	var accepted []match.Candidate
	for _, s := range kept {
		if overlapsAny(s.cand.Span, accepted) {
			continue
		}
		accepted = append(accepted, s.cand)
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Span.Start < accepted[j].Span.Start
	})
	return accepted
}

// lowCoverage is the share of the entity a low form stands for. Acronyms
// stand for the whole entity.
func lowCoverage(doc *document.Document, e surface.Entry, span document.Span) float64 {
	if e.TokenCount <= 0 {
		return 0
	}
	if e.HasAcronym(doc.Join(span, document.TextOf)) {
		return 1
	}
	return min(float64(span.Len())/float64(e.TokenCount), 1)
}

// groupTokens merges runs of one entity's token hits into a single
// candidate scored by distinct entity words covered. Runs never bridge a
// claimed token.
func (r *Resolver) groupTokens(doc *document.Document, db surface.DB, cands []match.Candidate) []match.Candidate {
	byEntity := make(map[string][]match.Candidate)
	var order []string
	for _, c := range cands {
		if _, ok := byEntity[c.EntityID]; !ok {
			order = append(order, c.EntityID)
		}
		byEntity[c.EntityID] = append(byEntity[c.EntityID], c)
	}

	var out []match.Candidate
	for _, id := range order {
		hits := byEntity[id]
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Span.Start < hits[j].Span.Start })

		e := db[id]
		words := entityWords(e)
		start := 0
		for i := 1; i <= len(hits); i++ {
			if i < len(hits) && r.joins(doc, hits[i-1].Span, hits[i].Span) {
				continue
			}
			out = append(out, r.group(doc, e, words, hits[start:i]))
			start = i
		}
	}
	return out
}

func (r *Resolver) joins(doc *document.Document, prev, next document.Span) bool {
	if next.Start < prev.End {
		return true
	}
	if next.Start-prev.End > r.cfg.MaxGap {
		return false
	}
	return doc.Mask().SpanMatchable(document.Span{Start: prev.Start, End: next.End})
}

func (r *Resolver) group(doc *document.Document, e surface.Entry, words map[string]bool, hits []match.Candidate) match.Candidate {
	span := document.Span{Start: hits[0].Span.Start, End: hits[0].Span.End}
	hit := make(map[string]bool)
	for _, h := range hits {
		span.End = max(span.End, h.Span.End)
		for _, tok := range doc.Tokens[h.Span.Start:h.Span.End] {
			switch {
			case words[tok.Lemma]:
				hit[tok.Lemma] = true
			case words[tok.Lower]:
				hit[tok.Lower] = true
			}
		}
	}
	score := 0.0
	if e.TokenCount > 0 {
		score = min(float64(len(hit))/float64(e.TokenCount), 1)
	}
	return match.Candidate{
		EntityID:    hits[0].EntityID,
		Span:        span,
		MatchedText: doc.MatchedText(span),
		Kind:        match.KindToken,
		Score:       score,
	}
}

func entityWords(e surface.Entry) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(e.HighForms.Full)) {
		words[w] = true
	}
	return words
}

func overlapsAny(s document.Span, accepted []match.Candidate) bool {
	for _, a := range accepted {
		if s.Overlaps(a.Span) {
			return true
		}
	}
	return false
}
