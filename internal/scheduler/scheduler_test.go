package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("AEST", 10*3600)

	now := time.Date(2025, 3, 10, 6, 0, 0, 0, loc)
	got, err := NextRun(now, "07:30:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 7, 30, 0, 0, loc), got)

	now = time.Date(2025, 3, 10, 8, 0, 0, 0, loc)
	got, err = NextRun(now, "07:30:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 7, 30, 0, 0, loc), got)

	// exactly on time fires today
	got, err = NextRun(time.Date(2025, 3, 10, 7, 30, 0, 0, loc), "07:30:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 7, 30, 0, 0, loc), got)

	// month rollover, computed in the venue zone even when now is UTC
	got, err = NextRun(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC), "00:00:05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 5, 0, loc), got)

	_, err = NextRun(now, "7am", loc)
	assert.Error(t, err)
}

func TestScheduler_TickFiresOncePerDay(t *testing.T) {
	loc := time.UTC
	current := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	runs := 0

	s := &Scheduler{
		At:       "00:00:05",
		Location: loc,
		Interval: time.Second,
		Job:      func(ctx context.Context) { runs++ },
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return current },
	}
	next, err := NextRun(current, s.At, loc)
	require.NoError(t, err)
	s.next = next

	ctx := context.Background()
	s.tick(ctx)
	assert.Equal(t, 0, runs)

	current = current.Add(5 * time.Second)
	s.tick(ctx)
	assert.Equal(t, 1, runs)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 5, 0, loc), s.next)

	current = current.Add(time.Hour)
	s.tick(ctx)
	assert.Equal(t, 1, runs)

	current = time.Date(2025, 3, 11, 0, 0, 6, 0, loc)
	s.tick(ctx)
	assert.Equal(t, 2, runs)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Scheduler{At: "00:00:00", Location: time.UTC, Interval: time.Millisecond, Job: func(context.Context) {},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
