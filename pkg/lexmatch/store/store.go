// Package store keeps versioned snapshots of built surface-form databases.
// A snapshot is written once and never updated; rebuilding the catalog
// produces a new version.
package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

// Store persists snapshots.
type Store interface {
	Close() error

	// Put stores s, assigning a version and build time when they are unset,
	// and returns the stored snapshot.
	Put(ctx context.Context, s Snapshot) (Snapshot, error)
	// Get returns the snapshot with the given version or ErrNotFound.
	Get(ctx context.Context, version string) (Snapshot, error)
	// Latest returns the newest snapshot or ErrNotFound.
	Latest(ctx context.Context) (Snapshot, error)
	// Versions lists stored snapshots, newest first.
	Versions(ctx context.Context) ([]Version, error)
	// Prune deletes all but the newest keep snapshots and reports how many
	// were removed.
	Prune(ctx context.Context, keep int) (int, error)
}

// Snapshot is one built database with the distribution it was built from.
type Snapshot struct {
	Version string
	BuiltAt time.Time
	Entries surface.DB
	Dist    tokendist.Distribution
}

// Version describes a stored snapshot without its payload.
type Version struct {
	Version string
	BuiltAt time.Time
	Stats   surface.Stats
}

// Describe returns the version header of s.
func (s Snapshot) Describe() Version {
	return Version{Version: s.Version, BuiltAt: s.BuiltAt, Stats: s.Entries.Stats()}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewVersion returns a new ULID. Versions sort lexically in creation order.
func NewVersion(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// Stamp fills in the version and build time of s when they are unset.
func Stamp(s Snapshot, now time.Time) Snapshot {
	if s.BuiltAt.IsZero() {
		s.BuiltAt = now.UTC()
	}
	if s.Version == "" {
		s.Version = NewVersion(s.BuiltAt)
	}
	return s
}
