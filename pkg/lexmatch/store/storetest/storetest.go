// Package storetest holds the behaviour every store.Store implementation
// must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

// Snapshot returns a small valid snapshot built at the given minute.
func Snapshot(minute int) store.Snapshot {
	return store.Snapshot{
		BuiltAt: time.Date(2025, 3, 1, 12, minute, 0, 0, time.UTC),
		Entries: surface.DB{
			"E1": {ID: "E1", Name: "Python Developer", TokenCount: 2,
				HighForms: surface.HighForms{Full: "python developer"},
				LowForms:  []string{"python develop", "develop python"}},
			"E2": {ID: "E2", Name: "Developer", TokenCount: 1,
				HighForms: surface.HighForms{Full: "developer"}, LowForms: []string{"develop"}},
		},
		Dist: tokendist.Distribution{"python": 1, "developer": 1},
	}
}

// Run exercises s. The store must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, internalerr.ErrNotFound)

	_, err = s.Put(ctx, store.Snapshot{})
	require.ErrorIs(t, err, internalerr.ErrEmptyDatabase)

	first, err := s.Put(ctx, Snapshot(0))
	require.NoError(t, err)
	require.NotEmpty(t, first.Version)

	second, err := s.Put(ctx, Snapshot(5))
	require.NoError(t, err)
	assert.Greater(t, second.Version, first.Version)

	_, err = s.Put(ctx, second)
	assert.Error(t, err, "versions are write-once")

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Version, latest.Version)
	assert.True(t, second.BuiltAt.Equal(latest.BuiltAt))
	assert.Equal(t, Snapshot(5).Entries, latest.Entries)
	assert.Equal(t, Snapshot(5).Dist, latest.Dist)

	got, err := s.Get(ctx, first.Version)
	require.NoError(t, err)
	assert.Equal(t, first.Version, got.Version)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)

	versions, err := s.Versions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, second.Version, versions[0].Version)
	assert.Equal(t, 2, versions[0].Stats.Total)
	assert.Equal(t, 2, versions[0].Stats.WithLowForms)

	removed, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	versions, err = s.Versions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, second.Version, versions[0].Version)
}
