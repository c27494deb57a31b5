package storage

import (
	"log/slog"
	"time"

	"github.com/deanmalmgren/cprofilev/profiler"
)

// Recorder periodically persists a live snapshot source into a Store, so a
// profiled run leaves a reviewable file behind and external viewers can
// follow it while it is still running.
type Recorder struct {
	src      profiler.Source
	store    Store
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRecorder starts a background recorder saving src into store every
// interval.
func NewRecorder(src profiler.Source, store Store, interval time.Duration, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		src:      src,
		store:    store,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.record()
		case <-r.stopCh:
			// Final save so the file reflects the end of the run.
			r.record()
			return
		}
	}
}

func (r *Recorder) record() {
	snap, err := r.src.Snapshot()
	if err != nil {
		r.logger.Warn("snapshot failed", "err", err)
		return
	}
	if err := r.store.SaveSnapshot(snap); err != nil {
		r.logger.Warn("snapshot save failed", "err", err)
	}
}

// Close stops the recorder after one final save.
func (r *Recorder) Close() {
	close(r.stopCh)
	<-r.doneCh
}
