//go:build !mips64 && !mips64le && !ppc64 && !s390x

package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)

	"github.com/deanmalmgren/cprofilev/profiler"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    generation INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS functions (
    generation INTEGER NOT NULL,
    file TEXT NOT NULL,
    line INTEGER NOT NULL,
    name TEXT NOT NULL,
    calls INTEGER NOT NULL DEFAULT 0,
    prim_calls INTEGER NOT NULL DEFAULT 0,
    tot_ns INTEGER NOT NULL DEFAULT 0,
    cum_ns INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS call_edges (
    generation INTEGER NOT NULL,
    file TEXT NOT NULL,
    line INTEGER NOT NULL,
    name TEXT NOT NULL,
    caller_file TEXT NOT NULL,
    caller_line INTEGER NOT NULL,
    caller_name TEXT NOT NULL,
    calls INTEGER NOT NULL DEFAULT 0,
    prim_calls INTEGER NOT NULL DEFAULT 0,
    tot_ns INTEGER NOT NULL DEFAULT 0,
    cum_ns INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_functions_generation ON functions(generation);
CREATE INDEX IF NOT EXISTS idx_call_edges_generation ON call_edges(generation);
`

// SQLiteStore implements Store using SQLite with WAL mode, so a profiled
// process can keep replacing the snapshot while a viewer reads the same
// file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a snapshot database at the given path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	// WAL mode and normal sync so reader and writer can share the file
	dsn := fmt.Sprintf("%s?_journal=WAL&_sync=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// SaveSnapshot writes snap as a new generation and drops older generations
// in the same transaction, so readers always see exactly one snapshot.
func (s *SQLiteStore) SaveSnapshot(snap profiler.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO snapshots (created_at) VALUES (?)`, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	gen, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot generation: %w", err)
	}

	for _, e := range snap.Entries {
		_, err := tx.Exec(`
			INSERT INTO functions (generation, file, line, name, calls, prim_calls, tot_ns, cum_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, gen, e.Key.File, e.Key.Line, e.Key.Name,
			e.Calls, e.PrimCalls, e.TotTime.Nanoseconds(), e.CumTime.Nanoseconds())
		if err != nil {
			return fmt.Errorf("insert function: %w", err)
		}

		for caller, cs := range e.Callers {
			_, err := tx.Exec(`
				INSERT INTO call_edges (generation, file, line, name,
					caller_file, caller_line, caller_name,
					calls, prim_calls, tot_ns, cum_ns)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, gen, e.Key.File, e.Key.Line, e.Key.Name,
				caller.File, caller.Line, caller.Name,
				cs.Calls, cs.PrimCalls, cs.TotTime.Nanoseconds(), cs.CumTime.Nanoseconds())
			if err != nil {
				return fmt.Errorf("insert call edge: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM functions WHERE generation < ?`, gen); err != nil {
		return fmt.Errorf("prune functions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM call_edges WHERE generation < ?`, gen); err != nil {
		return fmt.Errorf("prune call edges: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE generation < ?`, gen); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot reads the latest generation.
func (s *SQLiteStore) LoadSnapshot() (profiler.Snapshot, error) {
	var gen sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(generation) FROM snapshots`).Scan(&gen); err != nil {
		return profiler.Snapshot{}, fmt.Errorf("load snapshot generation: %w", err)
	}
	if !gen.Valid {
		return profiler.Snapshot{}, ErrNoSnapshot
	}

	rows, err := s.db.Query(`
		SELECT file, line, name, calls, prim_calls, tot_ns, cum_ns
		FROM functions WHERE generation = ?
	`, gen.Int64)
	if err != nil {
		return profiler.Snapshot{}, fmt.Errorf("load functions: %w", err)
	}
	defer rows.Close()

	var snap profiler.Snapshot
	for rows.Next() {
		var e profiler.Entry
		var totNs, cumNs int64
		if err := rows.Scan(&e.Key.File, &e.Key.Line, &e.Key.Name,
			&e.Calls, &e.PrimCalls, &totNs, &cumNs); err != nil {
			return profiler.Snapshot{}, fmt.Errorf("scan function: %w", err)
		}
		e.TotTime = time.Duration(totNs)
		e.CumTime = time.Duration(cumNs)
		e.Callers = make(map[profiler.FuncKey]profiler.CallerStat)
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return profiler.Snapshot{}, fmt.Errorf("load functions: %w", err)
	}

	byKey := make(map[profiler.FuncKey]*profiler.Entry, len(snap.Entries))
	for i := range snap.Entries {
		byKey[snap.Entries[i].Key] = &snap.Entries[i]
	}

	edges, err := s.db.Query(`
		SELECT file, line, name, caller_file, caller_line, caller_name,
			calls, prim_calls, tot_ns, cum_ns
		FROM call_edges WHERE generation = ?
	`, gen.Int64)
	if err != nil {
		return profiler.Snapshot{}, fmt.Errorf("load call edges: %w", err)
	}
	defer edges.Close()

	for edges.Next() {
		var key, caller profiler.FuncKey
		var cs profiler.CallerStat
		var totNs, cumNs int64
		if err := edges.Scan(&key.File, &key.Line, &key.Name,
			&caller.File, &caller.Line, &caller.Name,
			&cs.Calls, &cs.PrimCalls, &totNs, &cumNs); err != nil {
			return profiler.Snapshot{}, fmt.Errorf("scan call edge: %w", err)
		}
		cs.TotTime = time.Duration(totNs)
		cs.CumTime = time.Duration(cumNs)
		if e, ok := byKey[key]; ok {
			e.Callers[caller] = cs
		}
	}
	if err := edges.Err(); err != nil {
		return profiler.Snapshot{}, fmt.Errorf("load call edges: %w", err)
	}

	return snap, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
