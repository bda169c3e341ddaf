package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store/storetest"
)

func TestContract(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lexmatch.db"))
	require.NoError(t, err)
	defer s.Close()

	storetest.Run(t, s)
}

func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, initSchema(ctx, db), "iteration %d", i)
	}
}

func TestReopenKeepsSnapshots(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lexmatch.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	put, err := s.Put(ctx, storetest.Snapshot(0))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, put.Version, latest.Version)
}

func TestCorruptPayload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lexmatch.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	raw := s.(*sqliteStore).db
	_, err = raw.ExecContext(ctx, `INSERT INTO snapshots VALUES ('01BAD', '2025-01-01T00:00:00Z', '{not json', '{}', 0, 0, 0, 0)`)
	require.NoError(t, err)

	_, err = s.Get(ctx, "01BAD")
	assert.ErrorIs(t, err, internalerr.ErrInvalidFormat)
}
