// Package profiler holds call-graph profiling statistics and renders them as
// textual reports. It plays the role pstats plays for cProfile: it does not
// measure anything itself, it accumulates whatever the instrumentation
// reports and prints aggregate, caller and callee views of it.
package profiler

import (
	"fmt"
	"time"
)

// FuncKey identifies one profiled function.
type FuncKey struct {
	File string
	Line int
	Name string
}

// String renders the key in the filename:lineno(function) form used by
// report rows. Synthetic frames with no source location render as the bare
// name.
func (k FuncKey) String() string {
	if k.File == "" && k.Line == 0 {
		return k.Name
	}
	return fmt.Sprintf("%s:%d(%s)", k.File, k.Line, k.Name)
}

// CallerStat is the contribution of a single caller->callee edge.
type CallerStat struct {
	Calls     int64
	PrimCalls int64
	TotTime   time.Duration
	CumTime   time.Duration
}

// Entry is the accumulated statistics for one function.
type Entry struct {
	Key       FuncKey
	Calls     int64
	PrimCalls int64
	TotTime   time.Duration
	CumTime   time.Duration
	Callers   map[FuncKey]CallerStat
}

// Snapshot is a point-in-time copy of a session's statistics. It is safe to
// read without synchronization once taken.
type Snapshot struct {
	Entries []Entry
}

// TotalCalls returns the total number of recorded calls.
func (s Snapshot) TotalCalls() int64 {
	var n int64
	for _, e := range s.Entries {
		n += e.Calls
	}
	return n
}

// PrimitiveCalls returns the number of non-recursive calls.
func (s Snapshot) PrimitiveCalls() int64 {
	var n int64
	for _, e := range s.Entries {
		n += e.PrimCalls
	}
	return n
}

// TotalTime returns the sum of self time over all functions, which equals
// the total profiled wall time.
func (s Snapshot) TotalTime() time.Duration {
	var d time.Duration
	for _, e := range s.Entries {
		d += e.TotTime
	}
	return d
}

// Source produces statistics snapshots. A *Session is a live source; a
// storage-backed source re-reads a snapshot file on every call, which keeps
// the view current while a profiled process is still writing to it.
type Source interface {
	Snapshot() (Snapshot, error)
}

// Call is one completed function call as reported by the instrumentation.
type Call struct {
	Func   FuncKey
	Caller *FuncKey // nil for top-level calls
	Self   time.Duration
	Cum    time.Duration
	// Recursive marks calls made while Func was already on the stack.
	// Cumulative time is only charged for the outermost activation.
	Recursive bool
}
