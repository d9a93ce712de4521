package collector

import (
	"context"
	"time"

	"github.com/moznion/go-optional"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// StaticSource serves fixed closes per id. Used for development and tests.
type StaticSource struct {
	Closes map[string][]float64
	now    func() time.Time
}

// NewStaticSource creates a source serving closes keyed by id.
func NewStaticSource(closes map[string][]float64) *StaticSource {
	return &StaticSource{Closes: closes, now: time.Now}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Fetch(_ context.Context, id, period string) model.Quote {
	if err := ValidatePeriod(period); err != nil {
		return model.ErrorQuote(errors.Describe(errors.Wrapf(errors.ErrCodeInvalidPeriod, err, "Error fetching data for %s", id)))
	}

	closes := make([]float64, 0, len(s.Closes[id]))
	for _, c := range s.Closes[id] {
		if finite(c) {
			closes = append(closes, c)
		}
	}
	if len(closes) == 0 {
		return model.ErrorQuote(errors.Describe(errors.Newf(errors.ErrCodeEmptyResult, "No data found for %s", id)))
	}

	now := s.now().UTC()
	points := make([]model.Point, len(closes))
	for i, c := range closes {
		points[i] = model.Point{
			Date:   now.AddDate(0, 0, i-len(closes)+1).Format(model.DateLayout),
			Open:   optional.Some(c),
			High:   optional.Some(c),
			Low:    optional.Some(c),
			Close:  optional.Some(c),
			Volume: optional.Some[int64](0),
		}
	}

	change, changePercent := ComputeChange(closes)
	current := closes[len(closes)-1]
	return model.NewQuote(model.Observation{
		Symbol:        id,
		CurrentPrice:  current,
		Change:        optional.Some(change),
		ChangePercent: optional.Some(changePercent),
		High:          optional.Some(current),
		Low:           optional.Some(current),
		Timestamp:     model.FormatTimestamp(now),
		History:       points,
	})
}
