package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler polls on Interval and runs Job once per local day at the At clock time.
// Jobs run on the polling goroutine, so two runs never overlap.
type Scheduler struct {
	At       string // HH:MM:SS in Location
	Location *time.Location
	Interval time.Duration
	Job      func(ctx context.Context)
	Log      *slog.Logger

	now  func() time.Time
	next time.Time
}

// NextRun returns the first instant at or after now whose local clock reads at.
func NextRun(now time.Time, at string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04:05", at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run time %q (want HH:MM:SS)", at)
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
	if next.Before(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
	}
	return next, nil
}

func (s *Scheduler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	next, err := NextRun(s.clock(), s.At, s.Location)
	if err != nil {
		return err
	}
	s.next = next
	s.logger().Info("scheduler started", "next_run", s.next.Format(time.RFC3339))

	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock()
	if now.Before(s.next) {
		return
	}
	s.Job(ctx)

	// next day's slot, measured from after the job so a slow run can't fire twice
	next, err := NextRun(s.clock().Add(time.Second), s.At, s.Location)
	if err != nil {
		s.logger().Error("scheduler: next run", "err", err)
		return
	}
	s.next = next
	s.logger().Info("next run scheduled", "next_run", s.next.Format(time.RFC3339))
}
