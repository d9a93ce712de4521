package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketDigest/internal/model"
)

// Fetcher runs one complete fetch cycle.
type Fetcher interface {
	FetchAll(ctx context.Context) *model.Snapshot
}

// Scheduler triggers fetch cycles on cron schedules. Cycles never overlap: a trigger
// that fires while one is running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     cron.Job
	fetcher Fetcher
	logger  *zap.Logger
	ctx     context.Context
	manual  sync.WaitGroup
}

// NewScheduler creates a scheduler with second-resolution cron specs. ctx is passed to
// every cycle.
func NewScheduler(ctx context.Context, fetcher Fetcher, logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLogger(cl)),
		fetcher: fetcher,
		logger:  logger,
		ctx:     ctx,
	}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.cycle))
	return s
}

// Register adds one trigger per cron expression.
func (s *Scheduler) Register(specs ...string) error {
	for _, spec := range specs {
		if _, err := s.cron.AddJob(spec, s.job); err != nil {
			return fmt.Errorf("register %q: %w", spec, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("triggers", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running cycles to finish, including
// ones started by RunNow or Trigger.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.manual.Wait()
	s.logger.Info("scheduler stopped")
}

// RunNow runs a cycle immediately, unless one is already in progress.
func (s *Scheduler) RunNow() {
	s.manual.Add(1)
	defer s.manual.Done()
	s.job.Run()
}

// Trigger runs a cycle in the background. Stop waits for it.
func (s *Scheduler) Trigger() {
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.job.Run()
	}()
}

func (s *Scheduler) cycle() {
	if s.ctx.Err() != nil {
		return
	}
	snapshot := s.fetcher.FetchAll(s.ctx)
	s.logger.Info("fetch cycle finished", zap.String("timestamp", snapshot.Timestamp))
}

// cronLogger routes cron's own logging into zap. Cron logs every wake-up at info,
// so that goes to debug here.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
