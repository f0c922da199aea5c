package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cycle is the kind of recurrence a Rule follows
type Cycle string

const (
	CycleDaily        Cycle = "daily"
	CycleWeekly       Cycle = "weekly"
	CycleMonthly      Cycle = "monthly"
	CycleYearly       Cycle = "yearly"
	CycleSpecificDays Cycle = "specific_days"
)

// Rule describes when an obligation or habit recurs.
// DayOfMonth is used by monthly and yearly cycles, MonthOfYear only by yearly,
// and Weekdays only by specific_days.
type Rule struct {
	Cycle       Cycle      `json:"cycle"`
	DayOfMonth  int        `json:"day_of_month,omitempty"`
	MonthOfYear int        `json:"month_of_year,omitempty"`
	Weekdays    WeekdaySet `json:"weekdays,omitempty"`
}

// WeekdaySet is a set of weekdays serialized as lowercase English names.
type WeekdaySet []time.Weekday

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a weekday name, abbreviation, or number (0=Sunday, 6=Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(s)
	if err == nil && num >= 0 && num <= 6 {
		return time.Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseWeekdays parses a comma-separated list of weekdays
func ParseWeekdays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		wd, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		if !set.Contains(wd) {
			set = append(set, wd)
		}
	}
	return set, nil
}

// Contains reports whether wd is in the set
func (s WeekdaySet) Contains(wd time.Weekday) bool {
	for _, d := range s {
		if d == wd {
			return true
		}
	}
	return false
}

func (s WeekdaySet) String() string {
	days := make([]string, len(s))
	for i, wd := range s {
		days[i] = wd.String()[:3]
	}
	return strings.Join(days, ",")
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	names := make([]string, len(s))
	for i, wd := range s {
		names[i] = strings.ToLower(wd.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts weekday names as well as the 0-6 integers older
// records were written with.
func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("weekdays must be a list: %w", err)
	}

	set := make(WeekdaySet, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			var num int
			if err := json.Unmarshal(item, &num); err != nil {
				return fmt.Errorf("invalid weekday %s", string(item))
			}
			name = strconv.Itoa(num)
		}
		wd, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		set = append(set, wd)
	}
	*s = set
	return nil
}
