package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Candidate is one resource the bot may book. Order in a candidate list is preference order.
type Candidate struct {
	ID   string
	Name string
}

// Reservation is an existing booking that blocks Resources between Start and End.
// Timestamps are kept raw so a bad record only affects itself.
type Reservation struct {
	Resources ResourceSet
	Start     string
	End       string
}

// ResourceSet holds normalized resource identifiers.
type ResourceSet map[string]struct{}

func NewResourceSet(ids ...string) ResourceSet {
	s := make(ResourceSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s ResourceSet) Add(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

func (s ResourceSet) Contains(id string) bool {
	_, ok := s[strings.TrimSpace(id)]
	return ok
}

// Merge returns a new set with the members of every ref list.
func Merge(refs ...ResourceRefs) ResourceSet {
	s := ResourceSet{}
	for _, r := range refs {
		for _, id := range r {
			s.Add(id)
		}
	}
	return s
}

func (s ResourceSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ResourceRefs decodes a field that may hold a single id, a list of ids, or nothing.
// Numeric ids keep their literal text so 42 and "42" compare equal.
// Shapes that cannot name a resource decode to an empty list instead of failing.
type ResourceRefs []string

func (r *ResourceRefs) UnmarshalJSON(b []byte) error {
	*r = nil
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if id, ok := scalarID(item); ok {
				*r = append(*r, id)
			}
		}
	default:
		if id, ok := scalarID(t); ok {
			*r = ResourceRefs{id}
		}
	}
	return nil
}

func scalarID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// ParseCandidates decodes a JSON object of id -> display name, keeping key order.
func ParseCandidates(data []byte) ([]Candidate, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid spaces json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("invalid spaces json: want an object of id -> name")
	}

	var out []Candidate
	seen := map[string]bool{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid spaces json: %w", err)
		}
		id, _ := keyTok.(string)
		var name any
		if err := dec.Decode(&name); err != nil {
			return nil, fmt.Errorf("invalid spaces json: %w", err)
		}
		if seen[id] {
			return nil, fmt.Errorf("invalid spaces json: duplicate id %q", id)
		}
		seen[id] = true
		c := Candidate{ID: id, Name: fmt.Sprint(name)}
		if s, ok := name.(string); ok {
			c.Name = s
		}
		if c.Name == "" {
			c.Name = "Space " + id
		}
		out = append(out, c)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid spaces json: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("spaces config is empty")
	}
	return out, nil
}

const (
	localLayout = "2006-01-02T15:04:05"
	dateLayout  = "2006-01-02"
)

// Window is the requested booking interval on one local calendar day.
type Window struct {
	Date  time.Time
	Start time.Time
	End   time.Time
}

// NewWindow combines a YYYY-MM-DD date with HH:MM[:SS] clock times in loc.
func NewWindow(date, startClock, endClock string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
	}
	start, err := atClock(d, startClock, loc)
	if err != nil {
		return Window{}, err
	}
	end, err := atClock(d, endClock, loc)
	if err != nil {
		return Window{}, err
	}
	if !end.After(start) {
		return Window{}, fmt.Errorf("window end %s must be after start %s", endClock, startClock)
	}
	return Window{Date: d, Start: start, End: end}, nil
}

func atClock(d time.Time, clock string, loc *time.Location) (time.Time, error) {
	clock = NormalizeClock(clock)
	t, err := time.ParseInLocation(localLayout, d.Format(dateLayout)+"T"+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want HH:MM or HH:MM:SS)", clock)
	}
	return t, nil
}

// NormalizeClock pads HH:MM to HH:MM:SS.
func NormalizeClock(clock string) string {
	clock = strings.TrimSpace(clock)
	if len(clock) == 5 && strings.Count(clock, ":") == 1 {
		clock += ":00"
	}
	return clock
}

// DayBounds returns the local start and end of the window's day as sent to the reservation list.
func (w Window) DayBounds() (string, string) {
	day := w.Date.Format(dateLayout)
	return day + "T00:00:00", day + "T23:59:59.999"
}

// FormatLocal renders t as the offset-less local form the service expects.
func FormatLocal(t time.Time) string {
	return t.Format(localLayout)
}

type Outcome string

const (
	OutcomeBooked      Outcome = "booked"
	OutcomeExhausted   Outcome = "exhausted"
	OutcomeFetchFailed Outcome = "fetch_failed"
)

type AttemptStatus string

const (
	StatusOccupied AttemptStatus = "occupied"
	StatusRejected AttemptStatus = "rejected"
	StatusFailed   AttemptStatus = "failed"
	StatusBooked   AttemptStatus = "booked"
)

// Attempt records what happened to one candidate during a run.
type Attempt struct {
	Position  int
	Candidate Candidate
	Status    AttemptStatus
	Detail    string
}

// Result is the outcome of a run. Booked is set only for OutcomeBooked,
// Reason only for OutcomeFetchFailed.
type Result struct {
	Outcome    Outcome
	Booked     Candidate
	Candidates int
	Reason     error
	Attempts   []Attempt
}

// Detail is the human readable summary of the result.
func (r Result) Detail() string {
	switch r.Outcome {
	case OutcomeBooked:
		return "booked " + r.Booked.Name
	case OutcomeExhausted:
		return fmt.Sprintf("all %d spaces taken", r.Candidates)
	default:
		return "couldn't get bookings"
	}
}
