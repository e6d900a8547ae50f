package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics tracks the subscription expiry sweep.
type SweepMetrics struct {
	rows    *prometheus.CounterVec
	lastRun prometheus.Gauge
}

// NewSweepMetrics registers the sweep metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_sweep_rows_total",
		Help: "Subscriptions handled by the expiry sweep, by outcome.",
	}, []string{"outcome"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subscription_sweep_last_run_timestamp_seconds",
		Help: "Unix time of the last completed expiry sweep.",
	})
	reg.MustRegister(rows, lastRun)
	return &SweepMetrics{rows: rows, lastRun: lastRun}
}

// Record adds one sweep's counts.
func (m *SweepMetrics) Record(scanned, expired, failed int, at time.Time) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.WithLabelValues("scanned").Add(float64(scanned))
	m.rows.WithLabelValues("expired").Add(float64(expired))
	m.rows.WithLabelValues("failed").Add(float64(failed))
	m.lastRun.Set(float64(at.Unix()))
}
