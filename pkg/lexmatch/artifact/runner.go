// Package artifact runs the offline build: fetch the catalog, normalize it,
// count tokens, and build the surface-form database.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cognicore/lexmatch/internal/logging"
	"github.com/cognicore/lexmatch/internal/metrics"
	"github.com/cognicore/lexmatch/pkg/lexmatch/catalog"
	"github.com/cognicore/lexmatch/pkg/lexmatch/config"
	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

// Fetcher supplies raw catalog records.
type Fetcher interface {
	Fetch(ctx context.Context) ([]catalog.RawEntity, error)
}

// Runner wires the build steps. Every field except Normalizer and Builder is
// optional; nil collaborators are skipped.
type Runner struct {
	Fetcher    Fetcher
	Normalizer *catalog.Normalizer
	Builder    *surface.Builder
	Store      store.Store
	Paths      config.Paths
	Logger     logging.Logger
	Metrics    *metrics.Metrics
}

// Result describes a finished build.
type Result struct {
	Snapshot  store.Snapshot
	Fetched   bool
	Fallback  bool
	Normalize catalog.Report
	Build     surface.Report
	Duration  time.Duration
}

// Run performs the build. A failed fetch falls back to the raw artifact on
// disk; the build fails only when no raw records can be obtained.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	log := logging.OrNop(r.Logger).Named("build")
	start := time.Now()

	raws, res, err := r.raw(ctx, log)
	if err != nil {
		r.Metrics.ObserveBuild(metrics.OutcomeFailure, 0)
		return res, err
	}

	res, err = r.BuildFrom(ctx, raws, res, log)
	if err != nil {
		r.Metrics.ObserveBuild(metrics.OutcomeFailure, 0)
		return res, err
	}
	res.Duration = time.Since(start)

	outcome := metrics.OutcomeSuccess
	if res.Fallback {
		outcome = metrics.OutcomeFallback
	}
	r.Metrics.ObserveBuild(outcome, len(res.Snapshot.Entries))
	log.Info("build finished",
		logging.String("version", res.Snapshot.Version),
		logging.Int("entries", len(res.Snapshot.Entries)),
		logging.Bool("fallback", res.Fallback),
		logging.Duration("took", res.Duration))
	return res, nil
}

func (r *Runner) raw(ctx context.Context, log logging.Logger) ([]catalog.RawEntity, Result, error) {
	var res Result
	if r.Fetcher != nil {
		raws, err := r.Fetcher.Fetch(ctx)
		if err == nil && len(raws) == 0 {
			err = fmt.Errorf("catalog has no records: %w", internalerr.ErrUpstream)
		}
		if err == nil {
			res.Fetched = true
			log.Info("catalog fetched", logging.Int("records", len(raws)))
			return raws, res, nil
		}
		if r.Paths.Raw == "" {
			return nil, res, fmt.Errorf("fetch catalog: %w", err)
		}
		log.Warn("fetch failed, using existing raw catalog", logging.Err(err), logging.String("path", r.Paths.Raw))
		raws, loadErr := catalog.LoadRaw(r.Paths.Raw)
		if loadErr != nil {
			return nil, res, fmt.Errorf("fetch catalog: %w; fallback: %w", err, loadErr)
		}
		res.Fallback = true
		return raws, res, nil
	}

	if r.Paths.Raw == "" {
		return nil, res, fmt.Errorf("build: no fetcher and no raw path: %w", internalerr.ErrInvalidConfig)
	}
	raws, err := catalog.LoadRaw(r.Paths.Raw)
	if err != nil {
		return nil, res, fmt.Errorf("load raw: %w", err)
	}
	return raws, res, nil
}

// BuildFrom runs every step after fetching on raws. res carries the fetch
// outcome into the returned result. Artifacts are written only once the
// surface database is known to be non-empty, so a bad catalog never replaces
// the last good build. The raw catalog is written only when it was fetched.
func (r *Runner) BuildFrom(ctx context.Context, raws []catalog.RawEntity, res Result, log logging.Logger) (Result, error) {
	log = logging.OrNop(log)
	if r.Normalizer == nil || r.Builder == nil {
		return res, fmt.Errorf("build: normalizer and builder required: %w", internalerr.ErrInvalidConfig)
	}

	entities, nrep := r.Normalizer.Process(raws)
	res.Normalize = nrep
	log.Info("catalog normalized", logging.Int("processed", nrep.Processed), logging.Int("skipped", nrep.Skipped))

	dist := tokendist.Compute(entities)
	log.Info("token distribution computed", logging.Int("tokens", len(dist)))

	db, brep := r.Builder.Build(entities, dist)
	res.Build = brep
	if len(db) == 0 {
		return res, internalerr.ErrEmptyDatabase
	}
	stats := db.Stats()
	log.Info("surface forms built",
		logging.Int("entries", stats.Total),
		logging.Int("with_abbreviation", stats.WithAbbreviation),
		logging.Int("with_low_forms", stats.WithLowForms),
		logging.Int("match_on_tokens", stats.MatchOnTokens),
		logging.Int("skipped", brep.Skipped))

	var rawOut []catalog.RawEntity
	if res.Fetched {
		rawOut = raws
	}
	if err := r.saveArtifacts(rawOut, entities, dist, db); err != nil {
		return res, err
	}

	res.Snapshot = store.Snapshot{Entries: db, Dist: dist}
	if r.Store != nil {
		snap, err := r.Store.Put(ctx, res.Snapshot)
		if err != nil {
			return res, fmt.Errorf("store snapshot: %w", err)
		}
		res.Snapshot = snap
	} else {
		res.Snapshot = store.Stamp(res.Snapshot, time.Now())
	}
	return res, nil
}

// saveArtifacts writes each artifact whose path is configured. A nil raws
// leaves the raw catalog alone.
func (r *Runner) saveArtifacts(raws []catalog.RawEntity, entities []catalog.Entity, dist tokendist.Distribution, db surface.DB) error {
	steps := []struct {
		name  string
		path  string
		write func(string) error
	}{
		{"raw", r.Paths.Raw, func(p string) error { return catalog.SaveRaw(p, raws) }},
		{"processed", r.Paths.Processed, func(p string) error { return catalog.SaveEntities(p, entities) }},
		{"token distribution", r.Paths.TokenDist, func(p string) error { return tokendist.Save(p, dist) }},
		{"surface db", r.Paths.SurfaceDB, func(p string) error { return surface.Save(p, db) }},
	}
	for _, st := range steps {
		if st.path == "" || (st.name == "raw" && raws == nil) {
			continue
		}
		if err := st.write(st.path); err != nil {
			return fmt.Errorf("save %s: %w", st.name, err)
		}
	}
	return nil
}

// LoadDB returns the surface database to annotate with: the file at path
// when set, otherwise the latest snapshot in s.
func LoadDB(ctx context.Context, path string, s store.Store) (surface.DB, error) {
	if path != "" {
		db, err := surface.Load(path)
		if err == nil || s == nil || !errors.Is(err, internalerr.ErrNotFound) {
			return db, err
		}
	}
	if s == nil {
		return nil, fmt.Errorf("load surface db: no path or store: %w", internalerr.ErrNotFound)
	}
	snap, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Entries, nil
}
