package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDigest/internal/model"
)

func snapshot() *model.Snapshot {
	return &model.Snapshot{
		Timestamp: "2025-01-02T03:04:05Z",
		Categories: map[string]model.CategoryBlock{
			model.CategoryPreciousMetals: {
				Timestamp: "2025-01-02T03:04:05Z",
				Quotes: map[string]model.Quote{
					"gold":   model.NewQuote(model.Observation{Symbol: "GC=F", CurrentPrice: 2000, Timestamp: "2025-01-02T03:04:05Z"}),
					"silver": model.ErrorQuote("Error fetching data for SI=F: timeout"),
				},
			},
		},
	}
}

func TestHandleUpdatesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))

	require.NoError(t, m.Handle(context.Background(), snapshot()))
	require.NoError(t, m.Handle(context.Background(), snapshot()))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceFailuresTotal.WithLabelValues(model.CategoryPreciousMetals, "silver")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.SourceFailuresTotal.MustCurryWith(prometheus.Labels{"asset": "gold"})))

	// gold's three leaves and both timestamps are valid, silver's message is not
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ValidFields))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorFields))
	assert.InDelta(t, 5.0/6.0*100, testutil.ToFloat64(m.QualityScore), 1e-9)
	assert.Positive(t, testutil.ToFloat64(m.LastCycleTimestamp))
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, New().Register(reg))
	assert.Error(t, New().Register(reg))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Handle(context.Background(), snapshot()))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "market_digest_cycles_total 1")
	assert.Contains(t, string(body), `market_digest_source_failures_total{asset="silver",category="precious_metals"} 1`)
}
