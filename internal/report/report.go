// Package report parses the profiler backend's textual statistics reports
// and reformats them as navigable HTML. The upstream format is unstructured
// text from a tool this package does not control, so all boundary detection
// is pattern based: the column-header line is recognized by its ncalls /
// tottime / cumtime tokens, and function references by a trailing
// parenthesized name group.
package report

import "strings"

// Row is one parsed statistics table line. The first five columns are the
// first five whitespace-separated tokens of the source line; FuncRef is the
// remaining tokens rejoined with single spaces, since a function reference
// may itself contain spaces. Values stay strings: the renderer only displays
// them, preserving the backend's own formatting and precision.
type Row struct {
	Calls      string
	TotTime    string
	PerCall    string
	CumTime    string
	PerCallCum string
	FuncRef    string
}

// isHeaderLine reports whether line is the statistics column-header line.
func isHeaderLine(line string) bool {
	return strings.Contains(line, "ncalls") &&
		strings.Contains(line, "tottime") &&
		strings.Contains(line, "cumtime")
}

// Header returns every report line preceding the column-header line. When no
// such line exists the whole report is header and the table is empty.
func Header(report string) string {
	var b strings.Builder
	for _, line := range strings.Split(report, "\n") {
		if isHeaderLine(line) {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Rows parses the statistics table: every non-blank line strictly after the
// column-header line becomes one Row. The column-header line marks the table
// boundary but is not itself a data row.
func Rows(report string) []Row {
	var rows []Row
	inTable := false
	for _, line := range strings.Split(report, "\n") {
		if !inTable {
			if isHeaderLine(line) {
				inTable = true
			}
			continue
		}
		if row, ok := parseRow(line); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// headerCells returns the column-header line parsed with the same
// first-five/rest rule as data rows, for rendering the table head.
func headerCells(report string) (Row, bool) {
	for _, line := range strings.Split(report, "\n") {
		if isHeaderLine(line) {
			return mustParseRow(line), true
		}
	}
	return Row{}, false
}

func parseRow(line string) (Row, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Row{}, false
	}
	return rowFromTokens(tokens), true
}

func mustParseRow(line string) Row {
	return rowFromTokens(strings.Fields(line))
}

func rowFromTokens(tokens []string) Row {
	var row Row
	cols := []*string{&row.Calls, &row.TotTime, &row.PerCall, &row.CumTime, &row.PerCallCum}
	for i, col := range cols {
		if i < len(tokens) {
			*col = tokens[i]
		}
	}
	if len(tokens) > 5 {
		row.FuncRef = strings.Join(tokens[5:], " ")
	}
	return row
}
