// Package recurrence answers "is this rule due on a date" and "when is it next due".
//
// Months shorter than a rule's day of month are handled by clamping: a rule for the
// 31st is due on the last day of February, April, June, September and November, and a
// yearly rule for February 29 is due on February 28 in common years.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/recur/internal/models"
)

// WeeklyAnchor is the weekday a plain weekly rule fires on.
const WeeklyAnchor = time.Sunday

// ErrInvalidRule is wrapped by every rule validation failure
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Daily returns a rule that fires every day
func Daily() models.Rule {
	return models.Rule{Cycle: models.CycleDaily}
}

// Weekly returns a rule that fires once a week on WeeklyAnchor
func Weekly() models.Rule {
	return models.Rule{Cycle: models.CycleWeekly}
}

// Monthly returns a rule that fires on the given day of every month
func Monthly(dayOfMonth int) (models.Rule, error) {
	r := models.Rule{Cycle: models.CycleMonthly, DayOfMonth: dayOfMonth}
	return r, Validate(r)
}

// Yearly returns a rule that fires once a year on month/day
func Yearly(monthOfYear, dayOfMonth int) (models.Rule, error) {
	r := models.Rule{Cycle: models.CycleYearly, DayOfMonth: dayOfMonth, MonthOfYear: monthOfYear}
	return r, Validate(r)
}

// SpecificDays returns a rule that fires on each listed weekday
func SpecificDays(days models.WeekdaySet) (models.Rule, error) {
	r := models.Rule{Cycle: models.CycleSpecificDays, Weekdays: days}
	return r, Validate(r)
}

// Parse builds a rule from loosely typed input (CLI flags, forms).
func Parse(cycle string, dayOfMonth, monthOfYear int, weekdays string) (models.Rule, error) {
	switch models.Cycle(cycle) {
	case models.CycleDaily:
		return Daily(), nil
	case models.CycleWeekly:
		return Weekly(), nil
	case models.CycleMonthly:
		return Monthly(dayOfMonth)
	case models.CycleYearly:
		return Yearly(monthOfYear, dayOfMonth)
	case models.CycleSpecificDays, "specific-days", "specific-weekdays":
		days, err := models.ParseWeekdays(weekdays)
		if err != nil {
			return models.Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		return SpecificDays(days)
	default:
		return models.Rule{}, fmt.Errorf("%w: unknown cycle %q", ErrInvalidRule, cycle)
	}
}

// Validate rejects rules whose fields are out of range for their cycle.
func Validate(r models.Rule) error {
	switch r.Cycle {
	case models.CycleDaily, models.CycleWeekly:
		return nil
	case models.CycleMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month must be between 1 and 31, got %d", ErrInvalidRule, r.DayOfMonth)
		}
		return nil
	case models.CycleYearly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month must be between 1 and 31, got %d", ErrInvalidRule, r.DayOfMonth)
		}
		if r.MonthOfYear < 1 || r.MonthOfYear > 12 {
			return fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrInvalidRule, r.MonthOfYear)
		}
		return nil
	case models.CycleSpecificDays:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: weekdays must be specified for specific_days", ErrInvalidRule)
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, wd)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown cycle %q", ErrInvalidRule, r.Cycle)
	}
}

// IsDueOn reports whether the rule fires on date's calendar day.
func IsDueOn(r models.Rule, date time.Time) bool {
	switch r.Cycle {
	case models.CycleDaily:
		return true
	case models.CycleWeekly:
		return date.Weekday() == WeeklyAnchor
	case models.CycleMonthly:
		return date.Day() == clampDay(date.Year(), date.Month(), r.DayOfMonth)
	case models.CycleYearly:
		if date.Month() != time.Month(r.MonthOfYear) {
			return false
		}
		return date.Day() == clampDay(date.Year(), date.Month(), r.DayOfMonth)
	case models.CycleSpecificDays:
		return r.Weekdays.Contains(date.Weekday())
	default:
		return false
	}
}

// NextDueAfter returns the first firing date strictly after from's calendar day,
// at midnight in from's location. A rule that can never fire returns the zero time.
func NextDueAfter(r models.Rule, from time.Time) time.Time {
	day := dateOf(from)
	loc := from.Location()

	switch r.Cycle {
	case models.CycleMonthly:
		next := clampedDate(day.Year(), day.Month(), r.DayOfMonth, loc)
		if !next.After(day) {
			next = clampedDate(day.Year(), day.Month()+1, r.DayOfMonth, loc)
		}
		return next
	case models.CycleYearly:
		month := time.Month(r.MonthOfYear)
		next := clampedDate(day.Year(), month, r.DayOfMonth, loc)
		if !next.After(day) {
			next = clampedDate(day.Year()+1, month, r.DayOfMonth, loc)
		}
		return next
	default:
		// Day-granular cycles repeat within a week.
		for i := 1; i <= 7; i++ {
			candidate := day.AddDate(0, 0, i)
			if IsDueOn(r, candidate) {
				return candidate
			}
		}
		return time.Time{}
	}
}

// DaysBetween returns the number of calendar days from a to b, ignoring time of
// day and DST shifts.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Describe returns a human-readable description of the rule
func Describe(r models.Rule) string {
	switch r.Cycle {
	case models.CycleDaily:
		return "daily"
	case models.CycleWeekly:
		return fmt.Sprintf("weekly on %s", WeeklyAnchor.String()[:3])
	case models.CycleMonthly:
		return fmt.Sprintf("monthly on day %d", r.DayOfMonth)
	case models.CycleYearly:
		return fmt.Sprintf("yearly on %s %d", time.Month(r.MonthOfYear).String()[:3], r.DayOfMonth)
	case models.CycleSpecificDays:
		return fmt.Sprintf("on %s", r.Weekdays.String())
	default:
		return "unknown"
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in month, normalizing month overflow.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(year int, month time.Month, day int) int {
	if n := daysIn(year, month); day > n {
		return n
	}
	if day < 1 {
		return 1
	}
	return day
}

// clampedDate builds year/month/day with month overflow normalized first, so
// month 13 is January of the next year and day 31 in April becomes April 30.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return time.Date(first.Year(), first.Month(), clampDay(first.Year(), first.Month(), day), 0, 0, 0, 0, loc)
}
