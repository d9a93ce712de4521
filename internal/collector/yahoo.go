package collector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// YahooSource reads daily bars from the Yahoo Finance chart API.
type YahooSource struct {
	client *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewYahooSource creates a Yahoo chart source rooted at baseURL.
func NewYahooSource(baseURL string, opts HTTPOptions, logger *zap.Logger) *YahooSource {
	return &YahooSource{
		client: newHTTPClient(baseURL, opts, logger),
		logger: logger,
		now:    time.Now,
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
// Null entries in the indicator arrays decode as nil pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *YahooSource) Fetch(ctx context.Context, symbol, period string) model.Quote {
	obs, err := s.fetch(ctx, symbol, period)
	return settle(s.logger, s.Name(), symbol, obs, err)
}

func (s *YahooSource) fetch(ctx context.Context, symbol, period string) (*model.Observation, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidPeriod, err, "Error fetching data for %s", symbol)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{"interval": "1d", "range": period}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSourceUnavailable, err, "Error fetching data for %s", symbol)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(resp.Body(), &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		return nil, errors.Newf(errors.ErrCodeEmptyResult, "No data found for %s: %s", symbol, chart.Chart.Error.Description)
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeSourceUnavailable, "Error fetching data for %s: status %d", symbol, resp.StatusCode())
	}
	if decodeErr != nil {
		return nil, errors.Wrapf(errors.ErrCodeParseFailed, decodeErr, "Error fetching data for %s", symbol)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyResult, "No data found for %s", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	points := make([]model.Point, 0, len(result.Timestamp))
	closes := make([]float64, 0, len(result.Timestamp))
	last := -1
	for i, ts := range result.Timestamp {
		p := model.Point{
			Date:   time.Unix(ts, 0).UTC().Format(model.DateLayout),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: volumeAt(quote.Volume, i),
		}
		points = append(points, p)
		if c, err := p.Close.Take(); err == nil {
			closes = append(closes, c)
			last = i
		}
	}
	if last < 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyResult, "No data found for %s", symbol)
	}

	change, changePercent := ComputeChange(closes)
	bar := points[last]
	return &model.Observation{
		Symbol:        symbol,
		CurrentPrice:  closes[len(closes)-1],
		Change:        optional.Some(change),
		ChangePercent: optional.Some(changePercent),
		High:          bar.High,
		Low:           bar.Low,
		Volume:        bar.Volume,
		Timestamp:     model.FormatTimestamp(s.now()),
		History:       points,
	}, nil
}

// at reads a nullable indicator value. Missing, null and non-finite entries are None.
func at(values []*float64, i int) optional.Option[float64] {
	if i >= len(values) || values[i] == nil {
		return optional.None[float64]()
	}
	if v := *values[i]; finite(v) {
		return optional.Some(v)
	}
	return optional.None[float64]()
}

func volumeAt(values []*float64, i int) optional.Option[int64] {
	v, err := at(values, i).Take()
	if err != nil {
		return optional.None[int64]()
	}
	return optional.Some(int64(v))
}
