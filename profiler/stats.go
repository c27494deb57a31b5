package profiler

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Stats renders one snapshot of a Source as textual reports, written into a
// caller-supplied sink. Construct one per view; the snapshot is taken on the
// first print so that the aggregate, caller and callee reports of a single
// page describe the same moment.
type Stats struct {
	src    Source
	w      io.Writer
	snap   Snapshot
	loaded bool
}

// NewStats creates a report printer over src writing into w.
func NewStats(src Source, w io.Writer) *Stats {
	return &Stats{src: src, w: w}
}

func (st *Stats) load() (Snapshot, error) {
	if st.loaded {
		return st.snap, nil
	}
	snap, err := st.src.Snapshot()
	if err != nil {
		return Snapshot{}, err
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		a, b := snap.Entries[i], snap.Entries[j]
		if a.CumTime != b.CumTime {
			return a.CumTime > b.CumTime
		}
		return a.Key.String() < b.Key.String()
	})
	st.snap = snap
	st.loaded = true
	return snap, nil
}

// PrintStats writes the aggregate report, optionally restricted to functions
// whose filename:lineno(function) string matches the restriction pattern.
func (st *Stats) PrintStats(restriction string) error {
	snap, err := st.load()
	if err != nil {
		return err
	}

	total := snap.TotalCalls()
	prim := snap.PrimitiveCalls()
	fmt.Fprintf(st.w, "         %d function calls", total)
	if prim != total {
		fmt.Fprintf(st.w, " (%d primitive calls)", prim)
	}
	fmt.Fprintf(st.w, " in %.3f seconds\n\n", snap.TotalTime().Seconds())

	selected := selectEntries(snap.Entries, restriction)
	st.printOrdering(len(snap.Entries), len(selected), restriction)

	fmt.Fprintf(st.w, "   ncalls  tottime  percall  cumtime  percall filename:lineno(function)\n")
	for _, e := range selected {
		fmt.Fprintf(st.w, "%9s %s %s %s %s %s\n",
			callCount(e.Calls, e.PrimCalls),
			f8(e.TotTime), perCall(e.TotTime, e.Calls),
			f8(e.CumTime), perCall(e.CumTime, e.PrimCalls),
			e.Key.String())
	}
	return nil
}

// PrintCallers writes the "was called by" report for functions matching the
// restriction. Nothing is written when no function matches, so an absent
// section reads as an empty report downstream.
func (st *Stats) PrintCallers(restriction string) error {
	snap, err := st.load()
	if err != nil {
		return err
	}

	selected := selectEntries(snap.Entries, restriction)
	if len(selected) == 0 {
		return nil
	}
	st.printOrdering(len(snap.Entries), len(selected), restriction)

	width := nameWidth(selected)
	st.printCallHeading(width, "was called by...")
	for _, e := range selected {
		st.printCallLine(width, e.Key, e.Callers, "<-")
	}
	return nil
}

// PrintCallees writes the "called" report: for each function matching the
// restriction, the functions it invoked with the per-edge statistics.
func (st *Stats) PrintCallees(restriction string) error {
	snap, err := st.load()
	if err != nil {
		return err
	}

	selected := selectEntries(snap.Entries, restriction)
	if len(selected) == 0 {
		return nil
	}
	st.printOrdering(len(snap.Entries), len(selected), restriction)

	// Invert the caller edges recorded on each entry.
	callees := make(map[FuncKey]map[FuncKey]CallerStat)
	for _, e := range snap.Entries {
		for caller, cs := range e.Callers {
			m := callees[caller]
			if m == nil {
				m = make(map[FuncKey]CallerStat)
				callees[caller] = m
			}
			m[e.Key] = cs
		}
	}

	width := nameWidth(selected)
	st.printCallHeading(width, "called...")
	for _, e := range selected {
		st.printCallLine(width, e.Key, callees[e.Key], "->")
	}
	return nil
}

func (st *Stats) printOrdering(before, after int, restriction string) {
	fmt.Fprintf(st.w, "   Ordered by: cumulative time\n")
	if restriction != "" {
		fmt.Fprintf(st.w, "   List reduced from %d to %d due to restriction <'%s'>\n", before, after, restriction)
	}
	fmt.Fprintf(st.w, "\n")
}

func (st *Stats) printCallHeading(width int, title string) {
	fmt.Fprintf(st.w, "%s %s\n", pad("Function", width), title)
	fmt.Fprintf(st.w, "%s     ncalls  tottime  cumtime\n", strings.Repeat(" ", width))
}

func (st *Stats) printCallLine(width int, src FuncKey, edges map[FuncKey]CallerStat, arrow string) {
	fmt.Fprintf(st.w, "%s %s", pad(src.String(), width), arrow)
	if len(edges) == 0 {
		fmt.Fprintf(st.w, "\n")
		return
	}

	keys := make([]FuncKey, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for i, k := range keys {
		cs := edges[k]
		if i > 0 {
			// Continuation lines align under the first edge.
			fmt.Fprintf(st.w, "%s   ", strings.Repeat(" ", width))
		}
		fmt.Fprintf(st.w, " %7s %s %s  %s\n",
			callCount(cs.Calls, cs.PrimCalls), f8(cs.TotTime), f8(cs.CumTime), k.String())
	}
}

func selectEntries(entries []Entry, restriction string) []Entry {
	if restriction == "" {
		return entries
	}
	match := matcher(restriction)
	var out []Entry
	for _, e := range entries {
		if match(e.Key.String()) {
			out = append(out, e)
		}
	}
	return out
}

// matcher compiles restriction as a regular expression, degrading to a plain
// substring match when the pattern does not compile.
func matcher(restriction string) func(string) bool {
	re, err := regexp.Compile(restriction)
	if err != nil {
		return func(s string) bool { return strings.Contains(s, restriction) }
	}
	return re.MatchString
}

func nameWidth(entries []Entry) int {
	width := len("Function")
	for _, e := range entries {
		if n := len(e.Key.String()); n > width {
			width = n
		}
	}
	return width
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// callCount renders ncalls, with total/primitive split when they differ.
func callCount(calls, primCalls int64) string {
	if calls != primCalls {
		return fmt.Sprintf("%d/%d", calls, primCalls)
	}
	return fmt.Sprintf("%d", calls)
}

func f8(d time.Duration) string {
	return fmt.Sprintf("%8.3f", d.Seconds())
}

// perCall renders a time divided by a call count, blank when the count is
// zero, mirroring how pstats leaves the column empty.
func perCall(d time.Duration, calls int64) string {
	if calls == 0 {
		return strings.Repeat(" ", 8)
	}
	return fmt.Sprintf("%8.3f", d.Seconds()/float64(calls))
}
