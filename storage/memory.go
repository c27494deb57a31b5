package storage

import (
	"sync"

	"github.com/deanmalmgren/cprofilev/profiler"
)

// MemoryStore implements Store with an in-process copy of the latest
// snapshot. This is used when STORAGE=memory and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  profiler.Snapshot
	saved bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot replaces the stored snapshot.
func (s *MemoryStore) SaveSnapshot(snap profiler.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = copySnapshot(snap)
	s.saved = true
	return nil
}

// LoadSnapshot returns the latest stored snapshot.
func (s *MemoryStore) LoadSnapshot() (profiler.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return profiler.Snapshot{}, ErrNoSnapshot
	}
	return copySnapshot(s.snap), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func copySnapshot(snap profiler.Snapshot) profiler.Snapshot {
	out := profiler.Snapshot{Entries: make([]profiler.Entry, len(snap.Entries))}
	for i, e := range snap.Entries {
		copied := e
		copied.Callers = make(map[profiler.FuncKey]profiler.CallerStat, len(e.Callers))
		for k, v := range e.Callers {
			copied.Callers[k] = v
		}
		out.Entries[i] = copied
	}
	return out
}
