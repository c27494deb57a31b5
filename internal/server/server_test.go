package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deanmalmgren/cprofilev/profiler"
)

var (
	mainKey = profiler.FuncKey{File: "main.go", Line: 1, Name: "main"}
	fooKey  = profiler.FuncKey{File: "work.go", Line: 10, Name: "foo"}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	session := profiler.NewSession()
	session.Record(profiler.Call{Func: mainKey, Self: 5 * time.Millisecond, Cum: 35 * time.Millisecond})
	for i := 0; i < 3; i++ {
		session.Record(profiler.Call{Func: fooKey, Caller: &mainKey, Self: 10 * time.Millisecond, Cum: 10 * time.Millisecond})
	}
	return New(session, "testprog", testLogger())
}

func get(t *testing.T, s *Server, target string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestStatsPage(t *testing.T) {
	resp, body := get(t, newTestServer(t), "/")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(body, "func_name=foo") {
		t.Errorf("page has no drill-down link for foo:\n%s", body)
	}
	if strings.Contains(body, "Called By:") || strings.Contains(body, "Called:") {
		t.Errorf("page shows caller/callee sections without a focus function")
	}
}

func TestStatsPageWithFocus(t *testing.T) {
	_, body := get(t, newTestServer(t), "/?func_name=foo")

	if !strings.Contains(body, "Called By:") {
		t.Errorf("focused page missing Called By section:\n%s", body)
	}
	if !strings.Contains(body, "main.go:1(") {
		t.Errorf("caller report does not mention main:\n%s", body)
	}
	// The aggregate table is restricted to the focus function.
	if !strings.Contains(body, "List reduced from 2 to 1") {
		t.Errorf("aggregate header missing restriction note:\n%s", body)
	}
}

func TestStatsPageFocusUnknownFunction(t *testing.T) {
	_, body := get(t, newTestServer(t), "/?func_name=nosuchthing")

	if strings.Contains(body, "Called By:") || strings.Contains(body, "Called:") {
		t.Errorf("empty caller/callee reports should omit their sections:\n%s", body)
	}
	if !strings.Contains(body, "no profile data") {
		t.Errorf("empty table should render the placeholder:\n%s", body)
	}
}

func TestStatsPagePreservesQuery(t *testing.T) {
	_, body := get(t, newTestServer(t), "/?a=1&b=2")

	for _, want := range []string{"a=1", "b=2", "func_name=foo"} {
		if !strings.Contains(body, want) {
			t.Errorf("links do not preserve %q:\n%s", want, body)
		}
	}
}

func TestStatsPageIdempotent(t *testing.T) {
	s := newTestServer(t)
	_, first := get(t, s, "/")
	_, second := get(t, s, "/")
	if first != second {
		t.Error("identical requests produced different pages")
	}
}

func TestConcurrentRequestsDoNotInterleave(t *testing.T) {
	s := newTestServer(t)
	_, wantPlain := get(t, s, "/")
	_, wantFocus := get(t, s, "/?func_name=foo")

	var wg sync.WaitGroup
	errCh := make(chan string, 40)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(focused bool) {
			defer wg.Done()
			target, want := "/", wantPlain
			if focused {
				target, want = "/?func_name=foo", wantFocus
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != want {
				errCh <- "response for " + target + " corrupted"
			}
		}(i%2 == 0)
	}
	wg.Wait()
	close(errCh)
	for msg := range errCh {
		t.Error(msg)
	}
}

func TestStaleSinkDiscarded(t *testing.T) {
	s := newTestServer(t)
	s.sink.WriteString("residue from a previous request")

	_, body := get(t, s, "/")
	if strings.Contains(body, "residue") {
		t.Errorf("stale sink text leaked into the response:\n%s", body)
	}
}

func TestHealthz(t *testing.T) {
	resp, body := get(t, newTestServer(t), "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	get(t, s, "/") // generate at least one request metric

	resp, body := get(t, s, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "cprofilev_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}

func TestNotFound(t *testing.T) {
	resp, _ := get(t, newTestServer(t), "/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
