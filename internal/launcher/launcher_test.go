package launcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartRunsDetached(t *testing.T) {
	l, err := Start([]string{"true"}, "snap.db", testLogger())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("target did not exit")
	}
}

func TestStartExportsSnapshotPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	l, err := Start([]string{"sh", "-c", "echo $" + SnapshotPathEnv + " > " + out}, "/tmp/prof.db", testLogger())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("target did not exit")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read env capture: %v", err)
	}
	if got := string(data); got != "/tmp/prof.db\n" {
		t.Errorf("target saw %s = %q, want /tmp/prof.db", SnapshotPathEnv, got)
	}
}

func TestStartBadCommand(t *testing.T) {
	if _, err := Start([]string{"/no/such/binary"}, "snap.db", testLogger()); err == nil {
		t.Error("Start() with a missing binary should fail")
	}
}

func TestStartFailingTargetStillCompletes(t *testing.T) {
	l, err := Start([]string{"false"}, "snap.db", testLogger())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("target did not exit")
	}
}
