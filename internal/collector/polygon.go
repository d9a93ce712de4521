package collector

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// AggsIterator is the subset of the Polygon iterator PolygonSource consumes.
type AggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// AggsLister lists daily aggregates. *polygon.Client satisfies it through polygonAggs.
type AggsLister interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) AggsIterator
}

type polygonAggs struct {
	client *polygon.Client
}

func (p polygonAggs) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) AggsIterator {
	return p.client.ListAggs(ctx, params, options...)
}

// PolygonSource reads daily aggregates from the Polygon REST API.
type PolygonSource struct {
	api    AggsLister
	logger *zap.Logger
	now    func() time.Time
}

// NewPolygonSource creates a Polygon source. An empty apiKey makes every fetch an error quote.
func NewPolygonSource(apiKey string, logger *zap.Logger) *PolygonSource {
	s := &PolygonSource{logger: logger, now: time.Now}
	if apiKey != "" {
		s.api = polygonAggs{client: polygon.New(apiKey)}
	}
	return s
}

// NewPolygonSourceWithAPI wires a custom aggregates lister.
func NewPolygonSourceWithAPI(api AggsLister, logger *zap.Logger) *PolygonSource {
	return &PolygonSource{api: api, logger: logger, now: time.Now}
}

func (s *PolygonSource) Name() string { return "polygon" }

func (s *PolygonSource) Fetch(ctx context.Context, ticker, period string) model.Quote {
	obs, err := s.fetch(ctx, ticker, period)
	return settle(s.logger, s.Name(), ticker, obs, err)
}

func (s *PolygonSource) fetch(ctx context.Context, ticker, period string) (*model.Observation, error) {
	if s.api == nil {
		return nil, errors.New(errors.ErrCodeMissingCredential, "Polygon API key not configured")
	}

	now := s.now()
	from, err := PeriodStart(period, now)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidPeriod, err, "Error fetching data for %s", ticker)
	}

	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(from),
		To:         models.Millis(now),
	}.WithLimit(5000)

	iter := s.api.ListAggs(ctx, params)

	var (
		points []model.Point
		closes []float64
		last   models.Agg
	)
	for iter.Next() {
		agg := iter.Item()
		points = append(points, model.Point{
			Date:   time.Time(agg.Timestamp).UTC().Format(model.DateLayout),
			Open:   optional.Some(agg.Open),
			High:   optional.Some(agg.High),
			Low:    optional.Some(agg.Low),
			Close:  optional.Some(agg.Close),
			Volume: optional.Some(int64(agg.Volume)),
		})
		closes = append(closes, agg.Close)
		last = agg
	}
	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeSourceUnavailable, iter.Err(), "Error fetching data for %s", ticker)
	}
	if len(closes) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyResult, "No data found for %s", ticker)
	}

	change, changePercent := ComputeChange(closes)
	return &model.Observation{
		Symbol:        ticker,
		CurrentPrice:  last.Close,
		Change:        optional.Some(change),
		ChangePercent: optional.Some(changePercent),
		High:          optional.Some(last.High),
		Low:           optional.Some(last.Low),
		Volume:        optional.Some(int64(last.Volume)),
		Timestamp:     model.FormatTimestamp(now),
		History:       points,
	}, nil
}
