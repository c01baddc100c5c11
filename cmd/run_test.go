package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/skedda-booker/internal/booking"
	"github.com/example/skedda-booker/internal/config"
	"github.com/example/skedda-booker/internal/internaltypes"
	"github.com/example/skedda-booker/internal/runs"
)

type fakeClient struct {
	reservations []booking.Reservation
	listErr      error
	submitted    []string
}

func (f *fakeClient) ListReservations(ctx context.Context, w booking.Window) ([]booking.Reservation, error) {
	return f.reservations, f.listErr
}

func (f *fakeClient) Submit(ctx context.Context, resourceID string, start, end time.Time) error {
	f.submitted = append(f.submitted, resourceID)
	return nil
}

type fakeHistory struct {
	booked   bool
	recorded []runs.Run
}

func (f *fakeHistory) BookedFor(ctx context.Context, date time.Time) (bool, error) {
	return f.booked, nil
}

func (f *fakeHistory) Record(ctx context.Context, r runs.Run) error {
	f.recorded = append(f.recorded, r)
	return nil
}

func testRunner(t *testing.T, c *fakeClient) (*runner, *bytes.Buffer) {
	t.Helper()
	cfg := config.Config{
		Spaces:       []booking.Candidate{{ID: "r1", Name: "Desk A"}, {ID: "r2", Name: "Desk B"}},
		DaysAhead:    14,
		Location:     time.UTC,
		StartTime:    "08:30:00",
		EndTime:      "17:00:00",
		GitHubOutput: filepath.Join(t.TempDir(), "out"),
	}
	var out bytes.Buffer
	r := newRunner(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), &out)
	r.connect = func() (client, error) { return c, nil }
	r.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 5, 0, time.UTC) }
	return r, &out
}

func TestTargetDate(t *testing.T) {
	mel, err := time.LoadLocation("Australia/Melbourne")
	require.NoError(t, err)

	// 14:00 UTC on the 28th is already the 1st in Melbourne
	now := time.Date(2025, 2, 28, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-15", targetDate(now, mel, 14))
	assert.Equal(t, "2025-03-14", targetDate(now, time.UTC, 14))
	assert.Equal(t, "2025-02-28", targetDate(now, time.UTC, 0))
}

func TestRunner_Once(t *testing.T) {
	ctx := context.Background()

	t.Run("books first free space and reports", func(t *testing.T) {
		c := &fakeClient{reservations: []booking.Reservation{{
			Resources: booking.NewResourceSet("r1"),
			Start:     "2025-03-15T08:00:00",
			End:       "2025-03-15T12:00:00",
		}}}
		r, out := testRunner(t, c)
		h := &fakeHistory{}
		r.history = h

		require.NoError(t, r.once(ctx, ""))
		assert.Equal(t, []string{"r2"}, c.submitted)
		assert.Equal(t, "SUCCESS\n", out.String())

		b, err := os.ReadFile(r.cfg.GitHubOutput)
		require.NoError(t, err)
		assert.Equal(t, "date=15 March 2025\nmessage=Desk B\nresult=SUCCESS\ndetails=Booked Desk B for 8:30 AM - 5:00 PM\n", string(b))

		require.Len(t, h.recorded, 1)
		assert.Equal(t, booking.OutcomeBooked, h.recorded[0].Outcome)
		assert.Equal(t, "r2", h.recorded[0].BookedID)
	})

	t.Run("fetch failure is a failed run", func(t *testing.T) {
		c := &fakeClient{listErr: internaltypes.ErrAuthExpired}
		r, out := testRunner(t, c)

		err := r.once(ctx, "2025-03-20")
		require.ErrorIs(t, err, errNoSpace)
		assert.Empty(t, c.submitted)
		assert.Equal(t, "FAILED\n", out.String())

		b, err := os.ReadFile(r.cfg.GitHubOutput)
		require.NoError(t, err)
		assert.Contains(t, string(b), "date=20 March 2025\nmessage=No Space\nresult=FAILED\ndetails=couldn't get bookings\n")
	})

	t.Run("skips dates already booked", func(t *testing.T) {
		c := &fakeClient{}
		r, out := testRunner(t, c)
		h := &fakeHistory{booked: true}
		r.history = h

		require.NoError(t, r.once(ctx, ""))
		assert.Empty(t, c.submitted)
		assert.Empty(t, h.recorded)
		assert.Contains(t, out.String(), "SKIPPED")
		_, err := os.Stat(r.cfg.GitHubOutput)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("bad date", func(t *testing.T) {
		r, _ := testRunner(t, &fakeClient{})
		assert.Error(t, r.once(ctx, "15/03/2025"))
	})
}

func TestOpenHistory_Disabled(t *testing.T) {
	repo, closeDB, err := openHistory(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Nil(t, repo)
	closeDB()
}
