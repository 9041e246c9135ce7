// Package scheduler runs the periodic booking sweeps.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/logger"
	"marketplace/internal/metrics"

	"github.com/go-co-op/gocron/v2"
)

const (
	jobCompleteDue = "complete_due"
	jobExpireStale = "expire_stale"

	runTimeout = 5 * time.Minute
)

// Sweeper is the part of the booking service the jobs drive.
type Sweeper interface {
	CompleteDue(ctx context.Context, now time.Time) (int, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

type Scheduler struct {
	cron       gocron.Scheduler
	bookings   Sweeper
	pendingTTL time.Duration
	now        func() time.Time
}

func New(bookings Sweeper, interval, pendingTTL time.Duration) (*Scheduler, error) {
	cron, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{cron: cron, bookings: bookings, pendingTTL: pendingTTL, now: time.Now}

	jobs := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{jobCompleteDue, s.CompleteDue},
		{jobExpireStale, s.ExpireStale},
	}
	for _, j := range jobs {
		_, err := cron.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(s.task(j.name, j.run)),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", j.name, err)
		}
	}

	return s, nil
}

func (s *Scheduler) task(name string, run func(context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		start := time.Now()
		n, err := run(ctx)
		metrics.RecordSweep(name, time.Since(start).Seconds())
		if err != nil {
			logger.Error("sweep failed", "job", name, "error", err)
			return
		}
		if n > 0 {
			logger.Info("sweep finished", "job", name, "bookings", n)
		}
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started", "jobs", len(s.cron.Jobs()))
}

func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}

// CompleteDue completes confirmed bookings that have ended.
func (s *Scheduler) CompleteDue(ctx context.Context) (int, error) {
	return s.bookings.CompleteDue(ctx, s.now())
}

// ExpireStale fails gateway bookings left unpaid longer than the pending TTL.
func (s *Scheduler) ExpireStale(ctx context.Context) (int, error) {
	return s.bookings.ExpireStale(ctx, s.now().Add(-s.pendingTTL))
}
