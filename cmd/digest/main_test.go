package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketDigest/internal/model"
	"MarketDigest/internal/recorder"
)

const offlineConfig = `
data_dir: {{DIR}}
log:
  level: error
archive:
  format: csv
sources:
  static:
    closes:
      "GC=F": [2000, 2010]
      "EURUSD=X": [1.08, 1.09]
categories:
  - name: precious_metals
    assets:
      - {key: gold, source: static, id: "GC=F"}
      - {key: silver, source: static, id: "SI=F"}
  - name: fx
    assets:
      - {key: eur_usd, source: static, id: "EURUSD=X"}
summary:
  - {key: gold, name: Gold, category: precious_metals, quote: gold, currency: USD, unit: oz, display: currency}
  - {key: silver, name: Silver, category: precious_metals, quote: silver, currency: USD, unit: oz, display: currency}
  - {key: eur_usd, name: EUR/USD, category: fx, quote: eur_usd, currency: USD, unit: rate, display: rate}
`

func TestFetchCommandWritesDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(offlineConfig, "{{DIR}}", dir)), 0o644))

	require.NoError(t, newCommand().Run(context.Background(), []string{"digest", "fetch", "--config", path}))

	data, err := os.ReadFile(filepath.Join(dir, "summary_data.json"))
	require.NoError(t, err)
	var summary model.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2010.0, summary.Assets["gold"].Price)
	assert.InDelta(t, 0.5, summary.Assets["gold"].ChangePercent, 1e-9)
	assert.Contains(t, summary.Assets, "eur_usd")
	assert.NotContains(t, summary.Assets, "silver")

	for _, name := range []string{"latest_data.json", "historical_data.json", "summary_report.txt"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	archives, err := filepath.Glob(filepath.Join(dir, "archive", "quotes_*.csv"))
	require.NoError(t, err)
	assert.Len(t, archives, 1)

	report, err := os.ReadFile(filepath.Join(dir, "summary_report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "=== FINANCIAL DATA SUMMARY REPORT ===")
	assert.Contains(t, string(report), "No data found for SI=F")

	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "market_digest.db"), zap.NewNop())
	require.NoError(t, err)
	defer rec.Close()
	cycles, err := rec.RecentCycles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, summary.DataQuality.QualityGrade, cycles[0].QualityGrade)
}

func TestFetchCommandRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  period: 2w\n"), 0o644))

	err := newCommand().Run(context.Background(), []string{"digest", "fetch", "--config", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
