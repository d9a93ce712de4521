package model

// QualityReport scores how much of a snapshot holds usable values.
type QualityReport struct {
	TotalFields  int     `json:"total_fields"`
	ValidFields  int     `json:"valid_fields"`
	ErrorFields  int     `json:"error_fields"`
	QualityScore float64 `json:"quality_score"`
	QualityGrade string  `json:"quality_grade"`
}

// AssetSummary is the rendering-facing view of a single asset.
type AssetSummary struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Currency      string  `json:"currency"`
	Unit          string  `json:"unit"`
}

// Summary is what the website reads. Any asset may be missing from Assets.
type Summary struct {
	Timestamp   string                  `json:"timestamp"`
	UpdateTime  string                  `json:"update_time"`
	DataQuality QualityReport           `json:"data_quality"`
	Assets      map[string]AssetSummary `json:"assets"`
}

// HistoryEntry is one element of the rolling history ledger.
type HistoryEntry struct {
	Timestamp string  `json:"timestamp"`
	Date      string  `json:"date"`
	Data      Summary `json:"data"`
}
