package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

// sqliteStore implements store.Store on a single snapshots table. Payloads
// are stored as JSON in the same shape as the file artifacts.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema when missing.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	version TEXT PRIMARY KEY,
	built_at TEXT NOT NULL,
	entries TEXT NOT NULL,
	dist TEXT NOT NULL,
	total INTEGER NOT NULL,
	with_abbreviation INTEGER NOT NULL,
	with_low_forms INTEGER NOT NULL,
	match_on_tokens INTEGER NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: init schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) Put(ctx context.Context, snap store.Snapshot) (store.Snapshot, error) {
	if len(snap.Entries) == 0 {
		return store.Snapshot{}, internalerr.ErrEmptyDatabase
	}
	snap = store.Stamp(snap, time.Now())

	entries, err := surface.Encode(snap.Entries)
	if err != nil {
		return store.Snapshot{}, err
	}
	dist := snap.Dist
	if dist == nil {
		dist = tokendist.Distribution{}
	}
	distJSON, err := json.Marshal(dist)
	if err != nil {
		return store.Snapshot{}, err
	}
	stats := snap.Entries.Stats()

	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (version, built_at, entries, dist, total, with_abbreviation, with_low_forms, match_on_tokens)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Version, snap.BuiltAt.UTC().Format(time.RFC3339Nano), string(entries), string(distJSON),
		stats.Total, stats.WithAbbreviation, stats.WithLowForms, stats.MatchOnTokens)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: put %s: %w", snap.Version, err)
	}
	return snap, nil
}

func (s *sqliteStore) Get(ctx context.Context, version string) (store.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version, built_at, entries, dist FROM snapshots WHERE version = ?`, version)
	return scanSnapshot(row, version)
}

func (s *sqliteStore) Latest(ctx context.Context) (store.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version, built_at, entries, dist FROM snapshots ORDER BY version DESC LIMIT 1`)
	return scanSnapshot(row, "latest")
}

func scanSnapshot(row *sql.Row, label string) (store.Snapshot, error) {
	var (
		snap              store.Snapshot
		builtAt           string
		entries, distJSON string
	)
	if err := row.Scan(&snap.Version, &builtAt, &entries, &distJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Snapshot{}, fmt.Errorf("sqlite: snapshot %s: %w", label, internalerr.ErrNotFound)
		}
		return store.Snapshot{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, builtAt)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: snapshot %s built_at: %w: %v", snap.Version, internalerr.ErrInvalidFormat, err)
	}
	snap.BuiltAt = t

	db, err := surface.Decode([]byte(entries))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: snapshot %s: %w", snap.Version, err)
	}
	snap.Entries = db

	if err := json.Unmarshal([]byte(distJSON), &snap.Dist); err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: snapshot %s dist: %w: %v", snap.Version, internalerr.ErrInvalidFormat, err)
	}
	return snap, nil
}

func (s *sqliteStore) Versions(ctx context.Context) ([]store.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT version, built_at, total, with_abbreviation, with_low_forms, match_on_tokens
FROM snapshots ORDER BY version DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Version
	for rows.Next() {
		var (
			v       store.Version
			builtAt string
		)
		if err := rows.Scan(&v.Version, &builtAt, &v.Stats.Total, &v.Stats.WithAbbreviation, &v.Stats.WithLowForms, &v.Stats.MatchOnTokens); err != nil {
			return nil, err
		}
		if v.BuiltAt, err = time.Parse(time.RFC3339Nano, builtAt); err != nil {
			return nil, fmt.Errorf("sqlite: snapshot %s built_at: %w: %v", v.Version, internalerr.ErrInvalidFormat, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM snapshots WHERE version NOT IN (
	SELECT version FROM snapshots ORDER BY version DESC LIMIT ?
)`, keep)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
