package recorder

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"MarketDigest/internal/model"
)

// AssetPrice is one summarized asset of a cycle.
type AssetPrice struct {
	Asset         string  `json:"asset"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Currency      string  `json:"currency"`
}

// CycleRecord is the queryable log row of one fetch cycle.
type CycleRecord struct {
	ID           string       `json:"id"`
	Timestamp    string       `json:"timestamp"`
	TotalFields  int          `json:"total_fields"`
	ValidFields  int          `json:"valid_fields"`
	ErrorFields  int          `json:"error_fields"`
	QualityScore float64      `json:"quality_score"`
	QualityGrade string       `json:"quality_grade"`
	Assets       []AssetPrice `json:"assets"`
}

// NewCycleRecord projects a summary into a record with a fresh id. Assets are
// ordered by key.
func NewCycleRecord(summary model.Summary) *CycleRecord {
	rec := &CycleRecord{
		ID:           uuid.New().String(),
		Timestamp:    summary.Timestamp,
		TotalFields:  summary.DataQuality.TotalFields,
		ValidFields:  summary.DataQuality.ValidFields,
		ErrorFields:  summary.DataQuality.ErrorFields,
		QualityScore: summary.DataQuality.QualityScore,
		QualityGrade: summary.DataQuality.QualityGrade,
		Assets:       make([]AssetPrice, 0, len(summary.Assets)),
	}
	for key, a := range summary.Assets {
		rec.Assets = append(rec.Assets, AssetPrice{
			Asset:         key,
			Price:         a.Price,
			Change:        a.Change,
			ChangePercent: a.ChangePercent,
			Currency:      a.Currency,
		})
	}
	sort.Slice(rec.Assets, func(i, j int) bool { return rec.Assets[i].Asset < rec.Assets[j].Asset })
	return rec
}

// Recorder persists cycle history for later analysis.
type Recorder interface {
	RecordCycle(ctx context.Context, rec *CycleRecord) error
	RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error)
	Close() error
}
