package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/store"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]store.Snapshot
	now       func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{snapshots: make(map[string]store.Snapshot), now: time.Now}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Put implements store.Store. The snapshot is copied so later changes by the
// caller do not leak in.
func (s *Store) Put(ctx context.Context, snap store.Snapshot) (store.Snapshot, error) {
	if len(snap.Entries) == 0 {
		return store.Snapshot{}, internalerr.ErrEmptyDatabase
	}
	snap = store.Stamp(snap, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.snapshots[snap.Version]; exists {
		return store.Snapshot{}, fmt.Errorf("memstore: version %s already stored: %w", snap.Version, internalerr.ErrInvalidInput)
	}
	s.snapshots[snap.Version] = copySnapshot(snap)
	return snap, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, version string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[version]
	if !ok {
		return store.Snapshot{}, fmt.Errorf("memstore: version %s: %w", version, internalerr.ErrNotFound)
	}
	return copySnapshot(snap), nil
}

// Latest implements store.Store.
func (s *Store) Latest(ctx context.Context) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.sortedLocked()
	if len(versions) == 0 {
		return store.Snapshot{}, fmt.Errorf("memstore: no snapshots: %w", internalerr.ErrNotFound)
	}
	return copySnapshot(s.snapshots[versions[0]]), nil
}

// Versions implements store.Store.
func (s *Store) Versions(ctx context.Context) ([]store.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Version, 0, len(s.snapshots))
	for _, v := range s.sortedLocked() {
		out = append(out, s.snapshots[v].Describe())
	}
	return out, nil
}

// Prune implements store.Store.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.sortedLocked()
	removed := 0
	for _, v := range versions[min(keep, len(versions)):] {
		delete(s.snapshots, v)
		removed++
	}
	return removed, nil
}

// sortedLocked returns versions newest first. Callers hold mu.
func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.snapshots))
	for v := range s.snapshots {
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func copySnapshot(snap store.Snapshot) store.Snapshot {
	entries := make(surface.DB, len(snap.Entries))
	for id, e := range snap.Entries {
		e.LowForms = append([]string{}, e.LowForms...)
		entries[id] = e
	}
	dist := make(tokendist.Distribution, len(snap.Dist))
	for k, v := range snap.Dist {
		dist[k] = v
	}
	snap.Entries = entries
	snap.Dist = dist
	return snap
}
