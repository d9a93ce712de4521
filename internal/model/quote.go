package model

import (
	"strings"
	"time"

	"github.com/moznion/go-optional"
)

// Layouts used for every persisted timestamp and date.
const (
	TimestampLayout = time.RFC3339
	DateLayout      = "2006-01-02"
)

// FormatTimestamp renders t as the ISO-8601 UTC timestamp stored in snapshots.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Point is one bar of a historical series. Values the provider left empty stay None
// and serialize as null.
type Point struct {
	Date   string                   `json:"date"`
	Open   optional.Option[float64] `json:"open"`
	High   optional.Option[float64] `json:"high"`
	Low    optional.Option[float64] `json:"low"`
	Close  optional.Option[float64] `json:"close"`
	Volume optional.Option[int64]   `json:"volume"`
}

// Observation is the success variant of a Quote.
type Observation struct {
	Symbol        string                   `json:"symbol"`
	CurrentPrice  float64                  `json:"current_price"`
	Change        optional.Option[float64] `json:"change,omitempty"`
	ChangePercent optional.Option[float64] `json:"change_percent,omitempty"`
	High          optional.Option[float64] `json:"high,omitempty"`
	Low           optional.Option[float64] `json:"low,omitempty"`
	Volume        optional.Option[int64]   `json:"volume,omitempty"`
	Date          string                   `json:"date,omitempty"` // provider observation date, economic series only
	Timestamp     string                   `json:"timestamp"`
	History       []Point                  `json:"historical_data,omitempty"`
}

// Quote is one asset's result for a fetch cycle: either an Observation or an error
// message, never both.
type Quote struct {
	Error string `json:"error,omitempty"`
	*Observation
}

// NewQuote builds the success variant.
func NewQuote(obs Observation) Quote {
	return Quote{Observation: &obs}
}

// ErrorQuote builds the failure variant carrying only msg. The stored message always
// contains "error", which is what marks it invalid when scored; other messages get an
// "Error: " prefix.
func ErrorQuote(msg string) Quote {
	if !strings.Contains(strings.ToLower(msg), "error") {
		msg = "Error: " + msg
	}
	return Quote{Error: msg}
}

// IsError reports whether q is the failure variant.
func (q Quote) IsError() bool {
	return q.Observation == nil
}
