// Package server serves live call-graph statistics as a navigable web page.
// Each request renders a fresh snapshot of the profiling session, so the
// page stays usable while the profiled program is still running.
package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deanmalmgren/cprofilev/internal/report"
	"github.com/deanmalmgren/cprofilev/profiler"
)

// Server renders profiler statistics over HTTP. Navigation state lives
// entirely in the query string, so there is no per-session state here.
type Server struct {
	src     profiler.Source
	title   string
	logger  *slog.Logger
	metrics *Metrics
	tmpl    *template.Template

	// sink receives the backend's report text. One request holds mu
	// across all of its print-and-drain sequences; interleaved writers
	// would corrupt each other's reports.
	mu   sync.Mutex
	sink bytes.Buffer
}

// New creates a Server over the given snapshot source. The title is shown
// on the page, typically the profiled program or snapshot file name.
func New(src profiler.Source, title string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		src:     src,
		title:   title,
		logger:  logger,
		metrics: NewMetrics(),
		tmpl:    template.Must(template.New("stats").Parse(pageTemplate)),
	}
}

// ServeHTTP routes the viewer's endpoints.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		s.handleStats(w, r)
	case r.URL.Path == "/metrics" && r.Method == http.MethodGet:
		promhttp.Handler().ServeHTTP(w, r)
	case r.URL.Path == "/healthz":
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	default:
		http.NotFound(w, r)
	}
}

type pageData struct {
	Title   string
	Focus   string
	Header  template.HTML
	Table   template.HTML
	Callers template.HTML
	Callees template.HTML
}

// handleStats renders the statistics page. When func_name is set, the
// aggregate table is restricted to it and the caller/callee reports are
// shown as preformatted blocks; empty reports omit their section.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	funcName := query.Get(report.FuncNameKey)

	aggregate, callers, callees := s.generateReports(funcName)

	data := pageData{
		Title:   s.title,
		Focus:   funcName,
		Header:  report.LinkifyText(report.Header(aggregate), query),
		Table:   report.Table(aggregate, query),
		Callers: report.LinkifyText(callers, query),
		Callees: report.LinkifyText(callees, query),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("render failed", "err", err)
		s.metrics.RecordRequest("error", time.Since(start))
		return
	}
	s.metrics.RecordRequest("ok", time.Since(start))
}

// generateReports obtains the up-to-three textual reports for one request.
// The whole sequence runs under the sink lock: the backend writes into the
// shared sink, and the sink is drained after every report so nothing leaks
// into the next response. Report failures degrade to empty sections.
func (s *Server) generateReports(funcName string) (aggregate, callers, callees string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.sink.Len(); n > 0 {
		s.logger.Warn("discarding stale report text", "bytes", n)
		s.sink.Reset()
	}

	stats := profiler.NewStats(s.src, &s.sink)
	if funcName != "" {
		if err := stats.PrintCallers(funcName); err != nil {
			s.logger.Error("callers report failed", "func", funcName, "err", err)
		}
		callers = s.drain("callers")

		if err := stats.PrintCallees(funcName); err != nil {
			s.logger.Error("callees report failed", "func", funcName, "err", err)
		}
		callees = s.drain("callees")
	}

	if err := stats.PrintStats(funcName); err != nil {
		s.logger.Error("aggregate report failed", "err", err)
	}
	aggregate = s.drain("aggregate")
	return aggregate, callers, callees
}

// drain reads and resets the capture sink. Caller holds mu.
func (s *Server) drain(kind string) string {
	text := s.sink.String()
	s.sink.Reset()
	s.metrics.RecordReport(kind, len(text))
	return text
}
