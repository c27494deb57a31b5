package report

import (
	"fmt"
	"html"
	"html/template"
	"net/url"
	"regexp"
	"strings"
)

// FuncNameKey is the query parameter carrying the drill-down focus function.
const FuncNameKey = "func_name"

// funcRefRE captures the trailing function-reference group of a report line:
// the last parenthesized group at end of line. Parentheses earlier in the
// line belong to the prefix and are left untouched.
var funcRefRE = regexp.MustCompile(`^(.*)\((.*)\)$`)

// ignoreFuncNames are pseudo-frame placeholders, not real callables, so they
// never become links. "function" is the tail of the column-header line.
var ignoreFuncNames = map[string]bool{
	"function": true,
	"":         true,
}

// Linkify rewrites the trailing (name) group of line into an anchor that
// sets func_name=name while preserving every other query parameter. Lines
// without a function reference, and sentinel names, come back unchanged.
func Linkify(line string, query url.Values) string {
	m := funcRefRE.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	prefix, name := m[1], m[2]
	if ignoreFuncNames[name] {
		return line
	}
	return fmt.Sprintf("%s(<a href='%s'>%s</a>)",
		prefix, html.EscapeString(focusHref(query, name)), html.EscapeString(name))
}

// focusHref builds the navigation target: the current query string with
// func_name set (or overwritten) to name.
func focusHref(query url.Values, name string) string {
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(FuncNameKey, name)
	return "?" + q.Encode()
}

// LinkifyText applies Linkify to every line of a multi-line report block,
// such as the header or a callers/callees listing.
func LinkifyText(text string, query url.Values) template.HTML {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = Linkify(line, query)
	}
	return template.HTML(strings.Join(lines, "\n"))
}

// Table renders the report's statistics table rows as an HTML fragment: the
// column-header line becomes the <thead>, every data row a <tbody> row with
// a linkified function-reference cell. A table with no data rows renders an
// explicit placeholder instead.
func Table(report string, query url.Values) template.HTML {
	head, ok := headerCells(report)
	rows := Rows(report)

	if !ok || len(rows) == 0 {
		return `<tbody><tr><td colspan="6" class="empty">no profile data recorded yet</td></tr></tbody>`
	}

	var b strings.Builder
	b.WriteString("<thead><tr>")
	for _, cell := range cells(head) {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(cell))
	}
	b.WriteString("</tr></thead>\n<tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		rowCells := cells(row)
		for _, cell := range rowCells[:5] {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
		}
		fmt.Fprintf(&b, "<td>%s</td>", Linkify(row.FuncRef, query))
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>")
	return template.HTML(b.String())
}

func cells(r Row) [6]string {
	return [6]string{r.Calls, r.TotTime, r.PerCall, r.CumTime, r.PerCallCum, r.FuncRef}
}
