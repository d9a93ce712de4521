package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"MarketDigest/internal/api"
	"MarketDigest/internal/config"
	"MarketDigest/internal/logger"
	"MarketDigest/internal/metrics"
	"MarketDigest/internal/scheduler"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config file",
		Value:   "configs/config.yaml",
		Sources: cli.EnvVars("CONFIG_PATH"),
	}
}

// setup loads and validates the config, then builds the logger and the app.
func setup(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lg, err := logger.NewLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	lg.Info("config loaded", zap.Stringer("config", cfg))

	return newApp(cfg, lg)
}

// fetchAction runs a single fetch cycle and exits.
func fetchAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	defer a.Close()

	snapshot := a.aggregator.FetchAll(ctx)
	a.logger.Info("fetch completed", zap.String("timestamp", snapshot.Timestamp))
	return nil
}

// runAction starts the scheduler and the HTTP API, and blocks until SIGINT or SIGTERM.
func runAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.aggregator, a.logger.Named("scheduler"))
	specs := append([]string{a.cfg.Schedule.Cron}, a.cfg.Schedule.ExtraCrons...)
	if err := sched.Register(specs...); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}

	server := api.NewServer(a.store, a.recorder, metrics.Handler(a.registry), a.logger.Named("api"))
	if a.cfg.API.Addr != "" {
		if err := server.Start(a.cfg.API.Addr); err != nil {
			return err
		}
	}

	sched.Start()
	if cmd.Bool("now") {
		a.logger.Info("running a fetch cycle now")
		sched.Trigger()
	}

	a.logger.Info("market digest is running, press Ctrl+C to stop")
	<-ctx.Done()

	a.logger.Info("shutdown signal received, stopping")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("api shutdown", zap.Error(err))
	}
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Aggregate market quotes into a data-quality graded digest",
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Run one fetch cycle and write every output file",
				Flags:  []cli.Flag{configFlag()},
				Action: fetchAction,
			},
			{
				Name:  "run",
				Usage: "Fetch on the configured cron schedules and serve the HTTP API",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:    "now",
						Usage:   "Also run a fetch cycle immediately on start",
						Sources: cli.EnvVars("RUN_ON_START"),
					},
				},
				Action: runAction,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
