package booking

import (
	"fmt"
	"strings"
	"time"
)

// UnparsablePolicy decides how a reservation with unreadable timestamps is treated.
type UnparsablePolicy string

const (
	// PolicyLenient ignores the reservation. Bad upstream data can therefore
	// report a taken resource as free.
	PolicyLenient UnparsablePolicy = "lenient"
	// PolicyStrict treats the reservation as blocking the resources it names.
	PolicyStrict UnparsablePolicy = "strict"
)

func ParsePolicy(s string) (UnparsablePolicy, error) {
	switch UnparsablePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown unparsable policy %q (want lenient or strict)", s)
}

// Checker decides whether a resource is free for an interval given the existing reservations.
// Timestamps without an offset are read in Location.
type Checker struct {
	Location *time.Location
	Policy   UnparsablePolicy
}

// IsFree reports whether no reservation for resourceID overlaps [start, end).
func (c Checker) IsFree(resourceID string, start, end time.Time, reservations []Reservation) bool {
	for _, r := range reservations {
		if !r.Resources.Contains(resourceID) {
			continue
		}
		bs, be, err := c.interval(r)
		if err != nil {
			if c.Policy == PolicyStrict {
				return false
			}
			continue
		}
		if Overlaps(start, end, bs, be) {
			return false
		}
	}
	return true
}

func (c Checker) interval(r Reservation) (time.Time, time.Time, error) {
	bs, err := ParseTimestamp(r.Start, c.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	be, err := ParseTimestamp(r.End, c.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return bs, be, nil
}

// Overlaps is the half-open interval test: touching endpoints do not overlap.
func Overlaps(rs, re, bs, be time.Time) bool {
	return rs.Before(be) && re.After(bs)
}

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts ISO-8601 timestamps with a trailing Z, an explicit offset, or none.
// Offset-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, l := range offsetLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range naiveLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
