// Package metrics exposes fetch cycle health as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketDigest/internal/model"
	"MarketDigest/internal/quality"
)

const namespace = "market_digest"

// Metrics is the set of collectors updated after every cycle.
type Metrics struct {
	// fetch cycles handled
	CyclesTotal prometheus.Counter
	// error quotes per category and asset
	SourceFailuresTotal *prometheus.CounterVec
	// quality of the last snapshot
	QualityScore prometheus.Gauge
	ValidFields  prometheus.Gauge
	ErrorFields  prometheus.Gauge
	// unix time of the last snapshot
	LastCycleTimestamp prometheus.Gauge
}

// New creates the collectors. They still need Register.
func New() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total fetch cycles handled",
		}),
		SourceFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Error quotes per category and asset",
		}, []string{"category", "asset"}),
		QualityScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Quality score of the last snapshot, 0 to 100",
		}),
		ValidFields: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "valid_fields",
			Help:      "Valid leaves of the last snapshot",
		}),
		ErrorFields: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_fields",
			Help:      "Invalid leaves of the last snapshot",
		}),
		LastCycleTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last handled snapshot",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.CyclesTotal,
		m.SourceFailuresTotal,
		m.QualityScore,
		m.ValidFields,
		m.ErrorFields,
		m.LastCycleTimestamp,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Name identifies the metrics sink.
func (m *Metrics) Name() string { return "metrics" }

// Handle records one snapshot.
func (m *Metrics) Handle(_ context.Context, snapshot *model.Snapshot) error {
	m.CyclesTotal.Inc()

	for category, block := range snapshot.Categories {
		for asset, q := range block.Quotes {
			if q.IsError() {
				m.SourceFailuresTotal.WithLabelValues(category, asset).Inc()
			}
		}
	}

	report := quality.ScoreSnapshot(snapshot)
	m.QualityScore.Set(report.QualityScore)
	m.ValidFields.Set(float64(report.ValidFields))
	m.ErrorFields.Set(float64(report.ErrorFields))
	m.LastCycleTimestamp.SetToCurrentTime()

	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
