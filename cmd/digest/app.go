package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MarketDigest/internal/aggregator"
	"MarketDigest/internal/collector"
	"MarketDigest/internal/config"
	"MarketDigest/internal/logger"
	"MarketDigest/internal/metrics"
	"MarketDigest/internal/notifier"
	"MarketDigest/internal/recorder"
	"MarketDigest/internal/report"
	"MarketDigest/internal/store"
)

// app holds every long-lived component built from one config.
type app struct {
	cfg        *config.Config
	logger     *logger.Logger
	recorder   recorder.Recorder
	store      *store.Manager
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	aggregator *aggregator.Aggregator
}

func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Named("recorder"))
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			a.recorder = sr
		}
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.metrics = metrics.New()
	if err := a.metrics.Register(a.registry); err != nil {
		_ = a.recorder.Close()
		return nil, err
	}

	a.store = store.NewManager(cfg.DataDir, cfg.Summary, log.Named("store"),
		store.WithHistoryLimit(cfg.HistoryLimit),
		store.WithRecorder(a.recorder),
		store.WithArchive(store.NewArchiveSaver(cfg.Archive.Format)),
		store.WithReport(cfg.ReportPath, report.NewFormatter(cfg.Summary, cfg.Indicators.Window)),
	)

	sinks := []aggregator.Sink{a.store, a.metrics}
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log.Named("telegram"),
			notifier.WithProxy(cfg.Proxy))
		sinks = append(sinks, notifier.NewQualityAlert(tn, cfg.Telegram.AlertBelow, log.Named("alert")))
	}

	a.aggregator = aggregator.New(cfg.Categories, collector.NewRegistry(cfg, log.Logger), log.Named("aggregator"),
		aggregator.WithSinks(sinks...),
		aggregator.WithPeriod(cfg.Fetch.Period),
		aggregator.WithConcurrency(cfg.Fetch.Concurrency),
	)

	return a, nil
}

func (a *app) Close() error {
	return a.recorder.Close()
}
