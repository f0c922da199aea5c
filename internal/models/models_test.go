package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWeekdaySetJSON(t *testing.T) {
	set := WeekdaySet{time.Saturday, time.Monday}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["saturday","monday"]` {
		t.Errorf("marshal = %s", data)
	}

	var parsed WeekdaySet
	if err := json.Unmarshal([]byte(`["sat", 1, "Friday"]`), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := WeekdaySet{time.Saturday, time.Monday, time.Friday}
	if len(parsed) != len(want) {
		t.Fatalf("got %v, want %v", parsed, want)
	}
	for i := range want {
		if parsed[i] != want[i] {
			t.Errorf("parsed[%d] = %v, want %v", i, parsed[i], want[i])
		}
	}

	if err := json.Unmarshal([]byte(`["someday"]`), &parsed); err == nil {
		t.Error("expected error for unknown weekday")
	}
}

func TestParseWeekdaysDeduplicates(t *testing.T) {
	set, err := ParseWeekdays("mon, monday,1,")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 || set[0] != time.Monday {
		t.Errorf("ParseWeekdays = %v, want [Monday]", set)
	}
}

func TestLedgerAcceptsIntegerMarkers(t *testing.T) {
	var l Ledger
	if err := json.Unmarshal([]byte(`{"2024-01-01": true, "2024-01-02": 1, "2024-01-03": 0, "2024-01-04": false}`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	tests := map[string]bool{
		"2024-01-01": true,
		"2024-01-02": true,
		"2024-01-03": false,
		"2024-01-04": false,
		"2024-01-05": false,
	}
	for day, want := range tests {
		if got := l.Done(day); got != want {
			t.Errorf("Done(%s) = %v, want %v", day, got, want)
		}
	}
	if days := l.Days(); len(days) != 2 || days[0] != "2024-01-01" {
		t.Errorf("Days() = %v", days)
	}
}

func TestProcessedLogAdd(t *testing.T) {
	p := ProcessedLog{}
	if !p.Add("a", "2024-01-01") {
		t.Error("first Add should report new entry")
	}
	if p.Add("a", "2024-01-01") {
		t.Error("second Add should be a no-op")
	}
	if !p.Has("a", "2024-01-01") || p.Has("a", "2024-01-02") || p.Has("b", "2024-01-01") {
		t.Error("Has returned unexpected result")
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"usd", UnitUSD, false},
		{"ARS", UnitARS, false},
		{"MG", UnitMilligram, false},
		{"pill", UnitPill, false},
		{"btc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnit(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseUnit(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestTaskDone(t *testing.T) {
	if (Task{Progress: 99}).Done() {
		t.Error("99% task should not be done")
	}
	if !(Task{Progress: 100}).Done() {
		t.Error("100% task should be done")
	}
}
