package booking

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindow(t *testing.T, start, end string) Window {
	t.Helper()
	w, err := NewWindow("2025-03-10", start, end, time.UTC)
	require.NoError(t, err)
	return w
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 3, 10, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name           string
		rs, re, bs, be int
		want           bool
	}{
		{"disjoint before", 9, 10, 11, 12, false},
		{"disjoint after", 13, 14, 11, 12, false},
		{"touching end", 9, 11, 11, 12, false},
		{"touching start", 12, 13, 11, 12, false},
		{"contained", 10, 11, 9, 12, true},
		{"containing", 8, 17, 9, 12, true},
		{"partial left", 8, 10, 9, 12, true},
		{"partial right", 11, 13, 9, 12, true},
		{"identical", 9, 12, 9, 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(at(tt.rs), at(tt.re), at(tt.bs), at(tt.be)))
		})
	}
}

func TestChecker_IsFree(t *testing.T) {
	w := mustWindow(t, "09:00", "17:00")
	c := Checker{Location: time.UTC}

	t.Run("no reservations", func(t *testing.T) {
		assert.True(t, c.IsFree("r1", w.Start, w.End, nil))
	})

	t.Run("overlapping reservation blocks", func(t *testing.T) {
		rs := []Reservation{{Resources: NewResourceSet("r1"), Start: "2025-03-10T08:00:00", End: "2025-03-10T12:00:00"}}
		assert.False(t, c.IsFree("r1", w.Start, w.End, rs))
	})

	t.Run("other resource never matters", func(t *testing.T) {
		rs := []Reservation{{Resources: NewResourceSet("r2"), Start: "2025-03-10T08:00:00", End: "2025-03-10T18:00:00"}}
		assert.True(t, c.IsFree("r1", w.Start, w.End, rs))
	})

	t.Run("back to back is free", func(t *testing.T) {
		rs := []Reservation{
			{Resources: NewResourceSet("r1"), Start: "2025-03-10T07:00:00", End: "2025-03-10T09:00:00"},
			{Resources: NewResourceSet("r1"), Start: "2025-03-10T17:00:00", End: "2025-03-10T19:00:00"},
		}
		assert.True(t, c.IsFree("r1", w.Start, w.End, rs))
	})

	t.Run("utc marker", func(t *testing.T) {
		rs := []Reservation{{Resources: NewResourceSet("r1"), Start: "2025-03-10T16:30:00Z", End: "2025-03-10T18:00:00Z"}}
		assert.False(t, c.IsFree("r1", w.Start, w.End, rs))
	})

	t.Run("explicit offset", func(t *testing.T) {
		// 19:00+10:00 is 09:00Z, inside the window.
		rs := []Reservation{{Resources: NewResourceSet("r1"), Start: "2025-03-10T19:00:00+10:00", End: "2025-03-10T20:00:00+10:00"}}
		assert.False(t, c.IsFree("r1", w.Start, w.End, rs))

		// 03:00+10:00 next day is 17:00Z, touching the window end.
		rs = []Reservation{{Resources: NewResourceSet("r1"), Start: "2025-03-11T03:00:00+10:00", End: "2025-03-11T05:00:00+10:00"}}
		assert.True(t, c.IsFree("r1", w.Start, w.End, rs))
	})

	t.Run("malformed timestamps are ignored", func(t *testing.T) {
		rs := []Reservation{
			{Resources: NewResourceSet("r1"), Start: "yesterday", End: "2025-03-10T12:00:00"},
			{Resources: NewResourceSet("r1"), Start: "2025-03-10T08:00:00", End: ""},
		}
		assert.True(t, c.IsFree("r1", w.Start, w.End, rs))
	})

	t.Run("malformed timestamps block under strict policy", func(t *testing.T) {
		strict := Checker{Location: time.UTC, Policy: PolicyStrict}
		rs := []Reservation{{Resources: NewResourceSet("r1"), Start: "yesterday", End: "2025-03-10T12:00:00"}}
		assert.False(t, strict.IsFree("r1", w.Start, w.End, rs))
		assert.True(t, strict.IsFree("r2", w.Start, w.End, rs))
	})

	t.Run("naive timestamps use venue location", func(t *testing.T) {
		mel, err := time.LoadLocation("Australia/Melbourne")
		require.NoError(t, err)
		local, err := NewWindow("2025-03-10", "09:00", "17:00", mel)
		require.NoError(t, err)
		vc := Checker{Location: mel}

		rs := []Reservation{{Resources: NewResourceSet("r1"), Start: "2025-03-10T08:00:00", End: "2025-03-10T09:30:00"}}
		assert.False(t, vc.IsFree("r1", local.Start, local.End, rs))
	})
}

func TestResourceRefs_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ResourceRefs
	}{
		{"string", `"abc"`, ResourceRefs{"abc"}},
		{"number", `42`, ResourceRefs{"42"}},
		{"list", `["a", 7, "b"]`, ResourceRefs{"a", "7", "b"}},
		{"null", `null`, nil},
		{"empty string", `""`, nil},
		{"object", `{"id":"x"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r ResourceRefs
			require.NoError(t, json.Unmarshal([]byte(tt.in), &r))
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestMerge_NumericAndStringIDsMatch(t *testing.T) {
	var rec struct {
		Space  ResourceRefs `json:"space"`
		Spaces ResourceRefs `json:"spaces"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"space": 123, "spaces": "456"}`), &rec))

	set := Merge(rec.Space, rec.Spaces)
	assert.True(t, set.Contains("123"))
	assert.True(t, set.Contains("456"))
	assert.False(t, set.Contains("789"))
	assert.Equal(t, []string{"123", "456"}, set.Slice())
}

func TestParseTimestamp(t *testing.T) {
	_, err := ParseTimestamp("2025-03-10T08:00:00.123", time.UTC)
	assert.NoError(t, err)

	got, err := ParseTimestamp("2025-03-10T08:00:00Z", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), got.UTC())

	_, err = ParseTimestamp("10/03/2025", time.UTC)
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	p, err = ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("maybe")
	assert.Error(t, err)
}
