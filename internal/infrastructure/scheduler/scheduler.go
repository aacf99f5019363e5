// Package scheduler runs the periodic maintenance jobs of the collector.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/metrics"
	"github.com/lugayetu/collector/internal/core/service"
)

// Sweeper is the orphan-audio job.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// Scheduler owns the cron runner. Runs never overlap.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
}

func New(logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: 30 * time.Minute,
	}
}

// AddSweep registers the sweeper on schedule, a standard five-field cron
// expression or a descriptor such as @daily.
func (s *Scheduler) AddSweep(schedule string, sw Sweeper) error {
	_, err := s.cron.AddFunc(schedule, func() { s.runSweep(sw) })
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}
	s.logger.Info().Str("schedule", schedule).Msg("orphan sweep scheduled")
	return nil
}

func (s *Scheduler) runSweep(sw Sweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := sw.Sweep(ctx)
	if err != nil {
		metrics.OrphanSweepsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("orphan sweep failed")
		return
	}
	metrics.OrphanSweepsTotal.WithLabelValues("ok").Inc()
	metrics.OrphansRemovedTotal.Add(float64(res.Removed))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out with a job still running")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
