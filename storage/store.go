// Package storage persists profiler snapshots. A snapshot file is both the
// saved-report format the viewer can open later and the handoff point
// between a profiled process and a viewer watching it live: the writer
// replaces the latest snapshot, the viewer re-reads it on every request.
package storage

import (
	"errors"

	"github.com/deanmalmgren/cprofilev/profiler"
)

// ErrNoSnapshot is returned by LoadSnapshot before anything has been saved.
var ErrNoSnapshot = errors.New("storage: no snapshot recorded")

// Store is the interface for snapshot persistence.
type Store interface {
	// SaveSnapshot replaces the stored snapshot with snap.
	SaveSnapshot(snap profiler.Snapshot) error

	// LoadSnapshot returns the most recently saved snapshot, or
	// ErrNoSnapshot when the store is empty.
	LoadSnapshot() (profiler.Snapshot, error)

	// Close releases resources.
	Close() error
}

// Source adapts a Store to profiler.Source. Every call re-reads the store,
// so a file still being written by a running target yields fresh statistics
// on each request. An empty store reads as an empty snapshot, not an error:
// the viewer shows an empty-state page until the first save lands.
type Source struct {
	store Store
}

// NewSource wraps store as a profiler snapshot source.
func NewSource(store Store) *Source {
	return &Source{store: store}
}

// Snapshot implements profiler.Source.
func (s *Source) Snapshot() (profiler.Snapshot, error) {
	snap, err := s.store.LoadSnapshot()
	if errors.Is(err, ErrNoSnapshot) {
		return profiler.Snapshot{}, nil
	}
	return snap, err
}
