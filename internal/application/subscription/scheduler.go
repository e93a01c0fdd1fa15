package subscription

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

// Locker grants a named lock across replicas.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

const (
	sweepLockName = "subscription-sweep"
	sweepLockTTL  = 10 * time.Minute
)

// Scheduler runs SweepDue on a cron schedule. Only the replica holding the
// sweep lock does the work on each tick.
type Scheduler struct {
	cron    *cron.Cron
	service Service
	locker  Locker
	logger  logging.Logger
	timeout time.Duration
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such as
// "@every 1h") and prepares the job without starting it.
func NewScheduler(schedule string, service Service, locker Locker, logger logging.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		locker:  locker,
		logger:  logger.Named("subscription-sweep"),
		timeout: sweepLockTTL,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("subscription sweep scheduled")
}

// Stop prevents new runs and waits for a running sweep to finish or ctx to
// end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("subscription sweep still running at shutdown")
	}
}

// RunOnce performs one sweep if the lock can be taken.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock, ok, err := s.locker.TryLock(ctx, sweepLockName, sweepLockTTL)
	if err != nil {
		s.logger.Error("failed to acquire sweep lock", logging.Err(err))
		return
	}
	if !ok {
		s.logger.Debug("sweep lock held elsewhere, skipping")
		return
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sweep lock", logging.Err(err))
		}
	}()

	n, err := s.service.SweepDue(ctx)
	if err != nil {
		s.logger.Error("subscription sweep failed", logging.Err(err))
		return
	}
	s.logger.Info("subscription sweep completed", logging.Int("processed", n))
}
