// Package launcher runs the profiled target command in the background while
// the viewer serves its statistics.
package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// SnapshotPathEnv tells the target process where to persist its profile
// snapshots. An instrumented target opens a storage.SQLiteStore at this
// path and records into it; the viewer re-reads the same file per request.
const SnapshotPathEnv = "CPROFILEV_DB"

// Launcher owns the running target process.
type Launcher struct {
	cmd    *exec.Cmd
	logger *slog.Logger
	doneCh chan struct{}
}

// Start launches the target command with stdio passed through and the
// snapshot path exported in its environment. The command runs detached from
// the serving loop: nothing waits on it, and the viewer keeps serving after
// it exits. Done is closed when the target terminates.
func Start(target []string, snapshotPath string, logger *slog.Logger) (*Launcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.Command(target[0], target[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), SnapshotPathEnv+"="+snapshotPath)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", target[0], err)
	}

	l := &Launcher{cmd: cmd, logger: logger, doneCh: make(chan struct{})}
	go l.wait()
	return l, nil
}

func (l *Launcher) wait() {
	defer close(l.doneCh)
	if err := l.cmd.Wait(); err != nil {
		l.logger.Info("target exited", "err", err)
		return
	}
	l.logger.Info("target finished")
}

// Done is closed when the target process has exited.
func (l *Launcher) Done() <-chan struct{} {
	return l.doneCh
}
