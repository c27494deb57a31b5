//go:build mips64 || mips64le || ppc64 || s390x

package storage

import (
	"errors"
	"log/slog"

	"github.com/deanmalmgren/cprofilev/profiler"
)

// SQLiteStore is a stub for platforms the pure Go SQLite driver does not
// support. Use the memory store there.
type SQLiteStore struct{}

// NewSQLiteStore returns an error on unsupported platforms.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	return nil, errors.New("SQLite storage is not supported on this platform, use memory storage instead")
}

// SaveSnapshot is unavailable on this platform.
func (s *SQLiteStore) SaveSnapshot(snap profiler.Snapshot) error {
	return errors.New("SQLite storage not available")
}

// LoadSnapshot is unavailable on this platform.
func (s *SQLiteStore) LoadSnapshot() (profiler.Snapshot, error) {
	return profiler.Snapshot{}, errors.New("SQLite storage not available")
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return nil
}
