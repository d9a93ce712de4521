package recorder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketDigest/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "digest.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func summaryAt(ts string, gold float64, grade string) model.Summary {
	return model.Summary{
		Timestamp:  ts,
		UpdateTime: "2025-01-02 03:04:05 UTC",
		DataQuality: model.QualityReport{
			TotalFields: 10, ValidFields: 9, ErrorFields: 1, QualityScore: 90, QualityGrade: grade,
		},
		Assets: map[string]model.AssetSummary{
			"gold":    {Name: "Gold", Price: gold, Change: 1, ChangePercent: 0.05, Currency: "USD", Unit: "oz"},
			"eur_usd": {Name: "EUR/USD", Price: 1.08, Currency: "USD", Unit: "rate"},
		},
	}
}

func TestNewCycleRecord(t *testing.T) {
	rec := NewCycleRecord(summaryAt("2025-01-02T03:04:05Z", 2000, "A"))

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "A", rec.QualityGrade)
	require.Len(t, rec.Assets, 2)
	assert.Equal(t, "eur_usd", rec.Assets[0].Asset)
	assert.Equal(t, "gold", rec.Assets[1].Asset)

	other := NewCycleRecord(summaryAt("2025-01-02T03:04:05Z", 2000, "A"))
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.RecordCycle(ctx, NewCycleRecord(summaryAt("2025-01-01T00:00:00Z", 1990, "B"))))
	require.NoError(t, r.RecordCycle(ctx, NewCycleRecord(summaryAt("2025-01-02T00:00:00Z", 2010, "A"))))
	require.NoError(t, r.RecordCycle(ctx, NewCycleRecord(model.Summary{
		Timestamp:   "2025-01-03T00:00:00Z",
		DataQuality: model.QualityReport{QualityGrade: "F"},
	})))

	cycles, err := r.RecentCycles(ctx, 2)
	require.NoError(t, err)
	require.Len(t, cycles, 2)

	assert.Equal(t, "2025-01-03T00:00:00Z", cycles[0].Timestamp)
	assert.Equal(t, "F", cycles[0].QualityGrade)
	assert.Empty(t, cycles[0].Assets)

	assert.Equal(t, "2025-01-02T00:00:00Z", cycles[1].Timestamp)
	require.Len(t, cycles[1].Assets, 2)
	assert.Equal(t, "gold", cycles[1].Assets[1].Asset)
	assert.Equal(t, 2010.0, cycles[1].Assets[1].Price)

	none, err := r.RecentCycles(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()

	assert.NoError(t, r.RecordCycle(context.Background(), &CycleRecord{}))
	cycles, err := r.RecentCycles(context.Background(), 5)
	assert.NoError(t, err)
	assert.Empty(t, cycles)
	assert.NoError(t, r.Close())
}
