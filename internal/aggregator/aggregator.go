package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MarketDigest/internal/collector"
	"MarketDigest/internal/config"
	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
)

// Sink consumes every assembled snapshot. Failures are logged, never propagated.
type Sink interface {
	Handle(ctx context.Context, snapshot *model.Snapshot) error
	Name() string
}

// Aggregator fetches every configured asset and assembles snapshots.
type Aggregator struct {
	categories  []config.Category
	registry    collector.Registry
	period      string
	concurrency int
	sinks       []Sink
	logger      *zap.Logger
	now         func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithSinks appends sinks, run in the given order after each FetchAll.
func WithSinks(sinks ...Sink) Option {
	return func(a *Aggregator) { a.sinks = append(a.sinks, sinks...) }
}

// WithPeriod sets the lookback period passed to every source.
func WithPeriod(period string) Option {
	return func(a *Aggregator) { a.period = period }
}

// WithConcurrency bounds how many source calls run at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an Aggregator over categories, resolving each asset's source in registry.
func New(categories []config.Category, registry collector.Registry, logger *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		categories:  categories,
		registry:    registry,
		period:      "5d",
		concurrency: 4,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Categories lists the configured category names in order.
func (a *Aggregator) Categories() []string {
	names := make([]string, len(a.categories))
	for i, c := range a.categories {
		names[i] = c.Name
	}
	return names
}

type job struct {
	category int
	asset    config.Asset
}

// FetchCategory assembles one category block. Only an unknown name is an error;
// provider failures become error quotes inside the block.
func (a *Aggregator) FetchCategory(ctx context.Context, name string) (model.CategoryBlock, error) {
	for i, c := range a.categories {
		if c.Name != name {
			continue
		}
		jobs := make([]job, len(c.Assets))
		for j, asset := range c.Assets {
			jobs[j] = job{category: i, asset: asset}
		}
		quotes := a.run(ctx, jobs)
		return a.block(jobs, quotes), nil
	}
	return model.CategoryBlock{}, errors.Newf(errors.ErrCodeUnknownCategory, "unknown category %q", name)
}

// FetchAll fetches every asset of every category concurrently, assembles the
// snapshot once all calls have returned, then hands it to each sink in order.
func (a *Aggregator) FetchAll(ctx context.Context) *model.Snapshot {
	var jobs []job
	for i, c := range a.categories {
		for _, asset := range c.Assets {
			jobs = append(jobs, job{category: i, asset: asset})
		}
	}

	started := a.now()
	quotes := a.run(ctx, jobs)

	snapshot := &model.Snapshot{Categories: make(map[string]model.CategoryBlock, len(a.categories))}
	failed := 0
	for i, c := range a.categories {
		var catJobs []job
		var catQuotes []model.Quote
		for j, jb := range jobs {
			if jb.category == i {
				catJobs = append(catJobs, jb)
				catQuotes = append(catQuotes, quotes[j])
				if quotes[j].IsError() {
					failed++
				}
			}
		}
		snapshot.Categories[c.Name] = a.block(catJobs, catQuotes)
	}
	snapshot.Timestamp = model.FormatTimestamp(a.now())

	a.logger.Info("fetch cycle assembled",
		zap.Int("assets", len(jobs)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", a.now().Sub(started)),
	)

	for _, sink := range a.sinks {
		if err := sink.Handle(ctx, snapshot); err != nil {
			a.logger.Error("sink failed", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}

	return snapshot
}

func (a *Aggregator) run(ctx context.Context, jobs []job) []model.Quote {
	quotes := make([]model.Quote, len(jobs))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, jb := range jobs {
		g.Go(func() error {
			quotes[i] = a.fetch(ctx, jb.asset)
			return nil
		})
	}
	_ = g.Wait()

	return quotes
}

func (a *Aggregator) fetch(ctx context.Context, asset config.Asset) (q model.Quote) {
	src, ok := a.registry.Lookup(asset.Source)
	if !ok {
		a.logger.Warn("no source registered", zap.String("source", asset.Source), zap.String("asset", asset.Key))
		return model.ErrorQuote(errors.Describe(errors.Newf(errors.ErrCodeUnknownSource,
			"Error fetching data for %s: no source registered for %q", asset.ID, asset.Source)))
	}

	// a panicking source must not take the other fetches down with it
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("source panicked", zap.String("source", asset.Source), zap.String("asset", asset.Key), zap.Any("panic", r))
			q = model.ErrorQuote(fmt.Sprintf("Error fetching data for %s: %v", asset.ID, r))
		}
	}()

	return src.Fetch(ctx, asset.ID, a.period)
}

func (a *Aggregator) block(jobs []job, quotes []model.Quote) model.CategoryBlock {
	b := model.CategoryBlock{Quotes: make(map[string]model.Quote, len(jobs))}
	for i, jb := range jobs {
		b.Quotes[jb.asset.Key] = quotes[i]
	}
	b.Timestamp = model.FormatTimestamp(a.now())
	return b
}
