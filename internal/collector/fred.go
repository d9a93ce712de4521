package collector

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// fredMissingValue is what FRED reports for a date without an observation.
const fredMissingValue = "."

// FredSource reads the latest observations of a FRED economic series.
type FredSource struct {
	client *resty.Client
	apiKey string
	limit  int
	logger *zap.Logger
	now    func() time.Time
}

// NewFredSource creates a FRED source. An empty apiKey makes every fetch an error quote.
func NewFredSource(baseURL, apiKey string, opts HTTPOptions, logger *zap.Logger) *FredSource {
	return &FredSource{
		client: newHTTPClient(baseURL, opts, logger),
		apiKey: apiKey,
		limit:  2,
		logger: logger,
		now:    time.Now,
	}
}

func (s *FredSource) Name() string { return "fred" }

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorMessage string `json:"error_message"`
}

// Fetch ignores period: FRED series are sampled at their own frequency and only the
// latest two observations are requested.
func (s *FredSource) Fetch(ctx context.Context, seriesID, period string) model.Quote {
	obs, err := s.fetch(ctx, seriesID)
	return settle(s.logger, s.Name(), seriesID, obs, err)
}

func (s *FredSource) fetch(ctx context.Context, seriesID string) (*model.Observation, error) {
	if s.apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingCredential, "FRED API key not configured")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":  seriesID,
			"api_key":    s.apiKey,
			"file_type":  "json",
			"limit":      strconv.Itoa(s.limit),
			"sort_order": "desc",
		}).
		Get("/fred/series/observations")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSourceUnavailable, err, "Error fetching FRED data for %s", seriesID)
	}

	var body fredObservations
	decodeErr := json.Unmarshal(resp.Body(), &body)
	if resp.IsError() {
		if decodeErr == nil && body.ErrorMessage != "" {
			return nil, errors.Newf(errors.ErrCodeSourceUnavailable, "Error fetching FRED data for %s: %s", seriesID, body.ErrorMessage)
		}
		return nil, errors.Newf(errors.ErrCodeSourceUnavailable, "Error fetching FRED data for %s: status %d", seriesID, resp.StatusCode())
	}
	if decodeErr != nil {
		return nil, errors.Wrapf(errors.ErrCodeParseFailed, decodeErr, "Error fetching FRED data for %s", seriesID)
	}
	if len(body.Observations) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyResult, "No data found for series %s", seriesID)
	}

	latest := body.Observations[0]
	if latest.Value == fredMissingValue {
		return nil, errors.Newf(errors.ErrCodeEmptyResult, "No value reported for series %s on %s", seriesID, latest.Date)
	}

	// Observations arrive newest first; skip dates FRED has no usable value for.
	closes := make([]float64, 0, len(body.Observations))
	for i := len(body.Observations) - 1; i >= 0; i-- {
		o := body.Observations[i]
		if o.Value == fredMissingValue {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeParseFailed, err, "Error fetching FRED data for %s", seriesID)
		}
		if !finite(v) {
			if i == 0 {
				return nil, errors.Newf(errors.ErrCodeEmptyResult, "No value reported for series %s on %s", seriesID, latest.Date)
			}
			continue
		}
		closes = append(closes, v)
	}

	change, changePercent := ComputeChange(closes)
	return &model.Observation{
		Symbol:        seriesID,
		CurrentPrice:  closes[len(closes)-1],
		Change:        optional.Some(change),
		ChangePercent: optional.Some(changePercent),
		Date:          latest.Date,
		Timestamp:     model.FormatTimestamp(s.now()),
	}, nil
}
