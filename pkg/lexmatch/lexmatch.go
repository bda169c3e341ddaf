// Package lexmatch annotates free text with entities from a surface-form
// database. An Annotator is safe for concurrent use; each call works on its
// own document.
package lexmatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/lexmatch/internal/logging"
	"github.com/cognicore/lexmatch/internal/metrics"
	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/match"
	"github.com/cognicore/lexmatch/pkg/lexmatch/resolve"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// Annotator is the matching facade.
type Annotator struct {
	db        surface.DB
	tokenizer *document.Tokenizer
	pipeline  *match.Pipeline
	resolver  *resolve.Resolver
	logger    logging.Logger
	metrics   *metrics.Metrics
}

// Options configures an Annotator. Only DB is required.
type Options struct {
	DB        surface.DB
	Tokenizer *document.Tokenizer
	Matching  match.Config
	Resolve   resolve.Config
	Logger    logging.Logger
	Metrics   *metrics.Metrics
}

// DefaultOptions returns options with canonical matching settings for db.
func DefaultOptions(db surface.DB) Options {
	return Options{
		DB:       db,
		Matching: match.DefaultConfig(),
		Resolve:  resolve.DefaultConfig(),
	}
}

// New validates the database and builds the stage pipeline.
func New(opts Options) (*Annotator, error) {
	if len(opts.DB) == 0 {
		return nil, internalerr.ErrEmptyDatabase
	}
	if err := opts.DB.Validate(); err != nil {
		return nil, fmt.Errorf("lexmatch: %w", err)
	}
	tok := opts.Tokenizer
	if tok == nil {
		tok = document.NewTokenizer(nil, nil)
	}

	a := &Annotator{
		db:        opts.DB,
		tokenizer: tok,
		pipeline:  match.NewPipeline(opts.DB, opts.Matching),
		resolver:  resolve.New(opts.Resolve),
		logger:    logging.OrNop(opts.Logger).Named("annotator"),
		metrics:   opts.Metrics,
	}
	if opts.Metrics != nil {
		a.pipeline.WithObserver(opts.Metrics)
	}
	return a, nil
}

// Result is the annotation of one document.
type Result struct {
	Text               string            `json:"text,omitempty"`
	FullMatches        []match.Candidate `json:"full_matches"`
	FuzzyMatches       []match.Candidate `json:"fuzzy_matches"`
	ScoredNgramMatches []match.Candidate `json:"scored_ngram_matches"`
}

// All returns every match ordered by list: full, fuzzy, scored n-gram.
func (r Result) All() []match.Candidate {
	out := make([]match.Candidate, 0, len(r.FullMatches)+len(r.FuzzyMatches)+len(r.ScoredNgramMatches))
	out = append(out, r.FullMatches...)
	out = append(out, r.FuzzyMatches...)
	return append(out, r.ScoredNgramMatches...)
}

// ByKind partitions every match by the stage kind that produced it.
func (r Result) ByKind() map[match.Kind][]match.Candidate {
	out := make(map[match.Kind][]match.Candidate)
	for _, c := range r.All() {
		out[c.Kind] = append(out[c.Kind], c)
	}
	return out
}

// Annotate runs the pipeline over an already tokenized document and resolves
// the non-authoritative candidates against threshold. The document's mask is
// consumed; annotate a fresh document each time.
func (a *Annotator) Annotate(doc *document.Document, threshold float64) (Result, error) {
	if doc == nil {
		return Result{}, fmt.Errorf("lexmatch: nil document: %w", internalerr.ErrInvalidInput)
	}
	if threshold < 0 || threshold > 1 {
		return Result{}, fmt.Errorf("lexmatch: threshold %v outside [0,1]: %w", threshold, internalerr.ErrInvalidInput)
	}
	start := time.Now()

	res := a.pipeline.Run(doc)

	var ngram []match.Candidate
	ngram = append(ngram, res.Uni...)
	ngram = append(ngram, res.Low...)
	ngram = append(ngram, res.Token...)

	out := Result{
		Text:               doc.Source,
		FullMatches:        append(append([]match.Candidate{}, res.Full...), res.Abbreviation...),
		FuzzyMatches:       filterScore(res.Fuzzy, threshold),
		ScoredNgramMatches: a.resolver.Resolve(doc, a.db, ngram, threshold),
	}
	if out.ScoredNgramMatches == nil {
		out.ScoredNgramMatches = []match.Candidate{}
	}
	a.metrics.ObserveAnnotate(time.Since(start))
	return out, nil
}

// AnnotateText tokenizes text and annotates it.
func (a *Annotator) AnnotateText(text string, threshold float64) (Result, error) {
	return a.Annotate(a.tokenizer.Tokenize(text), threshold)
}

// AnnotateBatch annotates texts on up to workers goroutines. Results keep
// the input order. The first error cancels the remaining work.
func (a *Annotator) AnnotateBatch(ctx context.Context, texts []string, threshold float64, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]Result, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.AnnotateText(text, threshold)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.logger.Debug("batch annotated", logging.Int("documents", len(texts)), logging.Int("workers", workers))
	return out, nil
}

// DB returns the database the annotator matches against.
func (a *Annotator) DB() surface.DB { return a.db }

func filterScore(cands []match.Candidate, threshold float64) []match.Candidate {
	out := []match.Candidate{}
	for _, c := range cands {
		if c.Score >= threshold {
			out = append(out, c)
		}
	}
	return out
}
