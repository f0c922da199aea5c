package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Ledger is a sparse day -> completed record keyed by YYYY-MM-DD.
// A missing day means "not completed", never "unknown".
type Ledger map[string]bool

// Done reports whether day is marked complete
func (l Ledger) Done(day string) bool {
	return l[day]
}

// Clone returns an independent copy; nil stays nil.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	for day, done := range l {
		out[day] = done
	}
	return out
}

// Days returns the completed days in ascending order
func (l Ledger) Days() []string {
	days := make([]string, 0, len(l))
	for day, done := range l {
		if done {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// UnmarshalJSON accepts boolean or integer markers; any non-zero integer
// counts as completed.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Ledger, len(raw))
	for day, v := range raw {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out[day] = b
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("invalid ledger marker for %s: %s", day, string(v))
		}
		out[day] = n != 0
	}
	*l = out
	return nil
}

// ProcessedLog records which obligations were processed on which days.
// It is separate from a Ledger: it only suppresses repeated due-today reminders.
type ProcessedLog map[string]map[string]bool

// Has reports whether id was processed on day
func (p ProcessedLog) Has(id, day string) bool {
	return p[id][day]
}

// Add records (id, day). It reports whether the entry was new.
func (p ProcessedLog) Add(id, day string) bool {
	days, ok := p[id]
	if !ok {
		days = make(map[string]bool)
		p[id] = days
	}
	if days[day] {
		return false
	}
	days[day] = true
	return true
}
