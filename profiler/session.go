package profiler

import (
	"sync"
	"time"
)

// Session accumulates live call-graph statistics. Counters mutate while the
// profiled code runs; readers take snapshots and never observe a partially
// applied call record.
type Session struct {
	mu      sync.Mutex
	entries map[FuncKey]*Entry
}

// NewSession creates an empty live session.
func NewSession() *Session {
	return &Session{entries: make(map[FuncKey]*Entry)}
}

// Record folds one completed call into the session.
func (s *Session) Record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(c.Func)
	e.Calls++
	e.TotTime += c.Self
	if !c.Recursive {
		e.PrimCalls++
		e.CumTime += c.Cum
	}

	if c.Caller != nil {
		cs := e.Callers[*c.Caller]
		cs.Calls++
		cs.TotTime += c.Self
		if !c.Recursive {
			cs.PrimCalls++
			cs.CumTime += c.Cum
		}
		e.Callers[*c.Caller] = cs
	}
}

// Time runs f and records its wall-clock duration as a primitive call of fn
// from caller. It is a convenience for coarse-grained instrumentation; the
// duration is charged as both self and cumulative time.
func (s *Session) Time(fn FuncKey, caller *FuncKey, f func()) {
	start := time.Now()
	f()
	d := time.Since(start)
	s.Record(Call{Func: fn, Caller: caller, Self: d, Cum: d})
}

// Snapshot returns a deep copy of the current statistics.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Entries: make([]Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		copied := *e
		copied.Callers = make(map[FuncKey]CallerStat, len(e.Callers))
		for k, v := range e.Callers {
			copied.Callers[k] = v
		}
		snap.Entries = append(snap.Entries, copied)
	}
	return snap, nil
}

// entry returns the entry for key, creating it if needed. Caller holds mu.
func (s *Session) entry(key FuncKey) *Entry {
	e, ok := s.entries[key]
	if !ok {
		e = &Entry{Key: key, Callers: make(map[FuncKey]CallerStat)}
		s.entries[key] = e
	}
	return e
}
