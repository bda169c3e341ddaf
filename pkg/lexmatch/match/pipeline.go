package match

import (
	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/stoplist"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// Config selects and tunes the stages of a Pipeline.
type Config struct {
	Fuzzy        FuzzyConfig
	FuzzyEnabled bool
	Stoplist     *stoplist.Manager
}

// DefaultConfig enables every stage with canonical thresholds.
func DefaultConfig() Config {
	return Config{
		Fuzzy:        DefaultFuzzyConfig(),
		FuzzyEnabled: true,
		Stoplist:     stoplist.Default(),
	}
}

// Observer is told how many candidates each stage produced.
type Observer interface {
	ObserveStage(kind Kind, candidates int)
}

// Results holds the candidates of one run, grouped by stage.
type Results struct {
	Full         []Candidate
	Abbreviation []Candidate
	Fuzzy        []Candidate
	Uni          []Candidate
	Low          []Candidate
	Token        []Candidate
}

// Of returns the candidates produced by kind.
func (r Results) Of(kind Kind) []Candidate {
	switch kind {
	case KindFull:
		return r.Full
	case KindAbbreviation:
		return r.Abbreviation
	case KindFuzzy:
		return r.Fuzzy
	case KindUni:
		return r.Uni
	case KindLow:
		return r.Low
	case KindToken:
		return r.Token
	}
	return nil
}

func (r *Results) add(kind Kind, c []Candidate) {
	switch kind {
	case KindFull:
		r.Full = append(r.Full, c...)
	case KindAbbreviation:
		r.Abbreviation = append(r.Abbreviation, c...)
	case KindFuzzy:
		r.Fuzzy = append(r.Fuzzy, c...)
	case KindUni:
		r.Uni = append(r.Uni, c...)
	case KindLow:
		r.Low = append(r.Low, c...)
	case KindToken:
		r.Token = append(r.Token, c...)
	}
}

// Pipeline runs stages strictly in order over one document at a time. The
// stages only read the database, so a Pipeline may be shared by goroutines
// as long as each works on its own document.
type Pipeline struct {
	stages   []Stage
	observer Observer
}

// NewPipeline builds the standard stage order:
// full, abbreviation, fuzzy, uni, low, token.
func NewPipeline(db surface.DB, cfg Config) *Pipeline {
	stages := []Stage{NewFullMatcher(db), NewAbbreviationMatcher(db)}
	if cfg.FuzzyEnabled {
		stages = append(stages, NewFuzzyMatcher(db, cfg.Fuzzy))
	}
	stages = append(stages,
		NewUniMatcher(db),
		NewLowMatcher(db),
		NewTokenMatcher(db, cfg.Stoplist),
	)
	return NewPipelineFromStages(stages...)
}

// NewPipelineFromStages runs caller-provided stages in the given order.
func NewPipelineFromStages(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// WithObserver attaches an observer and returns the pipeline.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// Stages returns the kinds of the configured stages in run order.
func (p *Pipeline) Stages() []Kind {
	kinds := make([]Kind, len(p.stages))
	for i, s := range p.stages {
		kinds[i] = s.Kind()
	}
	return kinds
}

// Run executes every stage. The document mask is mutated by claiming stages.
func (p *Pipeline) Run(doc *document.Document) Results {
	var res Results
	for _, stage := range p.stages {
		cands := stage.Match(doc)
		res.add(stage.Kind(), cands)
		if p.observer != nil {
			p.observer.ObserveStage(stage.Kind(), len(cands))
		}
	}
	return res
}
