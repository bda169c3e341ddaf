// Package match scans a tokenized document with an ordered list of stages.
// Earlier, higher-confidence stages claim tokens on the document mask so
// later stages cannot re-split or steal them.
package match

import (
	"math"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
)

// Kind identifies the stage that produced a candidate.
type Kind string

const (
	KindFull         Kind = "full"
	KindAbbreviation Kind = "abbreviation"
	KindFuzzy        Kind = "fuzzy"
	KindUni          Kind = "uni"
	KindLow          Kind = "low"
	KindToken        Kind = "token"
)

// Kinds lists every kind in stage order.
var Kinds = []Kind{KindFull, KindAbbreviation, KindFuzzy, KindUni, KindLow, KindToken}

// Authoritative reports whether candidates of this kind bypass conflict
// resolution.
func (k Kind) Authoritative() bool {
	return k == KindFull || k == KindAbbreviation || k == KindFuzzy
}

// Candidate is one proposed annotation.
type Candidate struct {
	EntityID    string        `json:"entity_id"`
	Span        document.Span `json:"token_span"`
	MatchedText string        `json:"matched_text"`
	Kind        Kind          `json:"kind"`
	Score       float64       `json:"score"`
}

// Stage is one matching pass. Match may claim tokens on the document mask but
// must never claim a span it did not accept.
type Stage interface {
	Kind() Kind
	Match(doc *document.Document) []Candidate
}

// Round3 rounds a score to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func newCandidate(doc *document.Document, id string, span document.Span, kind Kind, score float64) Candidate {
	return Candidate{
		EntityID:    id,
		Span:        span,
		MatchedText: doc.MatchedText(span),
		Kind:        kind,
		Score:       Round3(score),
	}
}
