// Package streak derives consecutive-day counts from a completion ledger.
package streak

import (
	"time"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/models"
)

// Compute returns the current streak ending today. An incomplete today does
// not break a streak that ran through yesterday.
func Compute(ledger models.Ledger, today time.Time) int {
	cursor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !ledger.Done(cursor.Format(constants.DateFormat)) {
		cursor = cursor.AddDate(0, 0, -1)
	}

	count := 0
	for ledger.Done(cursor.Format(constants.DateFormat)) {
		count++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return count
}

// Longest returns the longest run of consecutive completed days anywhere in
// the ledger.
func Longest(ledger models.Ledger) int {
	best, run := 0, 0
	var prev time.Time
	for _, day := range ledger.Days() {
		d, err := time.Parse(constants.DateFormat, day)
		if err != nil {
			continue
		}
		if !prev.IsZero() && d.Equal(prev.AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = d
	}
	return best
}
