package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the viewer.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	reportBytes     *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics creates the metrics collector. Registration happens once per
// process; subsequent calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cprofilev_requests_total",
					Help: "Total number of statistics page requests",
				},
				[]string{"status"},
			),
			requestDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "cprofilev_request_duration_seconds",
					Help:    "Statistics page render duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
			),
			reportBytes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cprofilev_report_bytes_total",
					Help: "Total report text bytes drained from the capture sink",
				},
				[]string{"kind"},
			),
		}
	})
	return metricsInst
}

// RecordRequest records a completed page request.
func (m *Metrics) RecordRequest(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(status).Inc()
	m.requestDuration.Observe(duration.Seconds())
}

// RecordReport records the size of one drained report.
func (m *Metrics) RecordReport(kind string, bytes int) {
	if m == nil {
		return
	}
	if bytes > 0 {
		m.reportBytes.WithLabelValues(kind).Add(float64(bytes))
	}
}
