package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/skedda-booker/internal/booking"
)

func window(t *testing.T) booking.Window {
	t.Helper()
	w, err := booking.NewWindow("2025-03-10", "08:30", "17:00", time.UTC)
	require.NoError(t, err)
	return w
}

func TestSummarize(t *testing.T) {
	w := window(t)

	s := Summarize(w, booking.Result{Outcome: booking.OutcomeBooked, Booked: booking.Candidate{ID: "r2", Name: "Desk B"}})
	assert.Equal(t, Summary{
		Date:    "10 March 2025",
		Message: "Desk B",
		Result:  "SUCCESS",
		Details: "Booked Desk B for 8:30 AM - 5:00 PM",
	}, s)
	assert.True(t, s.OK())

	s = Summarize(w, booking.Result{Outcome: booking.OutcomeExhausted, Candidates: 4})
	assert.Equal(t, "No Space", s.Message)
	assert.Equal(t, "FAILED", s.Result)
	assert.Equal(t, "all 4 spaces taken", s.Details)
	assert.False(t, s.OK())

	s = Summarize(w, booking.Result{Outcome: booking.OutcomeFetchFailed})
	assert.Equal(t, "couldn't get bookings", s.Details)
}

func TestSummary_AppendTo(t *testing.T) {
	p := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, os.WriteFile(p, []byte("previous=1\n"), 0o644))

	s := Summary{Date: "10 March 2025", Message: "Desk\nB", Result: "SUCCESS", Details: "ok"}
	require.NoError(t, s.AppendTo(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "previous=1\ndate=10 March 2025\nmessage=Desk B\nresult=SUCCESS\ndetails=ok\n", string(b))

	assert.NoError(t, s.AppendTo(""))
}

func TestSummary_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary{Date: "d", Message: "m", Result: "FAILED", Details: "x"}.Write(&buf))
	assert.Equal(t, "date=d\nmessage=m\nresult=FAILED\ndetails=x\n", buf.String())
}
