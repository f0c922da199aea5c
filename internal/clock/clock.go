// Package clock supplies "now" to the engine so tests can pin the date.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current wall-clock time
type Clock interface {
	Now() time.Time
}

// System is the real clock, reported in a configured location.
type System struct {
	Location *time.Location
}

// NewSystem creates a System clock for an IANA timezone name.
// "Local" or empty selects the system timezone.
func NewSystem(timezone string) (System, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return System{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return System{Location: loc}, nil
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed always returns the same instant until advanced. Safe for concurrent use.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a clock frozen at t
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// Set moves the clock to t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// Today returns the calendar date of c.Now() at midnight in its location.
func Today(c Clock) time.Time {
	return Date(c.Now())
}

// Date truncates t to midnight in t's location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
