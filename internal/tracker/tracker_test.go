package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/recur/internal/clock"
	apperr "github.com/julianstephens/recur/internal/errors"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/storage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func monthly(t *testing.T, dom int) models.Rule {
	t.Helper()
	r, err := recurrence.Monthly(dom)
	if err != nil {
		t.Fatalf("Monthly(%d) failed: %v", dom, err)
	}
	return r
}

func usd(amount string) models.Quantity {
	return models.Quantity{Amount: decimal.RequireFromString(amount), Unit: models.UnitUSD}
}

func newExpenses(t *testing.T, store storage.RecordStore) *Tracker {
	t.Helper()
	tr := New(store, "default", models.KindExpense)
	if err := tr.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return tr
}

func mustAdd(t *testing.T, tr *Tracker, d Draft) models.Obligation {
	t.Helper()
	ob, err := tr.Add(context.Background(), d)
	if err != nil {
		t.Fatalf("Add(%q) failed: %v", d.Name, err)
	}
	return ob
}

func TestAddAssignsIdentityAndPersists(t *testing.T) {
	store := storage.NewMemory()
	tr := newExpenses(t, store)

	ob := mustAdd(t, tr, Draft{Name: " Rent ", Payload: usd("1200"), Rule: monthly(t, 1), ReminderLeadDays: 3})
	if ob.ID == "" {
		t.Error("Expected a generated ID")
	}
	if !ob.Active {
		t.Error("Expected new obligation to be active")
	}
	if ob.Name != "Rent" {
		t.Errorf("Expected trimmed name 'Rent', got %q", ob.Name)
	}
	if ob.Kind != models.KindExpense {
		t.Errorf("Expected kind %q, got %q", models.KindExpense, ob.Kind)
	}

	reloaded := newExpenses(t, store)
	got, err := reloaded.Get(ob.ID)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	if got.Name != "Rent" {
		t.Errorf("Expected name 'Rent' after reload, got %q", got.Name)
	}
	if !got.Payload.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected amount 1200 after reload, got %s", got.Payload.Amount)
	}
}

func TestAddRejectsInvalidDrafts(t *testing.T) {
	tr := newExpenses(t, storage.NewMemory())
	ctx := context.Background()

	tests := []struct {
		name  string
		draft Draft
		want  error
	}{
		{"empty name", Draft{Payload: usd("1"), Rule: recurrence.Daily()}, ErrInvalid},
		{"negative lead", Draft{Name: "x", Payload: usd("1"), Rule: recurrence.Daily(), ReminderLeadDays: -1}, ErrInvalid},
		{"negative amount", Draft{Name: "x", Payload: usd("-1"), Rule: recurrence.Daily()}, ErrInvalid},
		{"dose unit on expense", Draft{Name: "x", Payload: models.Quantity{Unit: models.UnitPill}, Rule: recurrence.Daily()}, ErrInvalid},
		{"bad rule", Draft{Name: "x", Payload: usd("1"), Rule: models.Rule{Cycle: models.CycleMonthly, DayOfMonth: 40}}, recurrence.ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Add(ctx, tt.draft); !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(tr.List()); n != 0 {
		t.Errorf("Expected no obligations after rejected drafts, got %d", n)
	}
}

func TestDueTodayAndMarkProcessed(t *testing.T) {
	ctx := context.Background()
	tr := newExpenses(t, storage.NewMemory())
	rent := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15)})
	mustAdd(t, tr, Draft{Name: "Gym", Payload: usd("30"), Rule: monthly(t, 1)})

	now := date(2024, 3, 15)
	due := tr.DueToday(now)
	if len(due) != 1 || due[0].ID != rent.ID {
		t.Fatalf("Expected only Rent due on the 15th, got %v", due)
	}

	if err := tr.MarkProcessed(ctx, rent.ID, now); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if !tr.WasProcessed(rent.ID, now) {
		t.Error("Expected Rent to be processed")
	}
	if due := tr.DueToday(now); len(due) != 0 {
		t.Errorf("Expected nothing due after processing, got %d", len(due))
	}

	got, _ := tr.Get(rent.ID)
	if got.LastProcessed != "2024-03-15" {
		t.Errorf("Expected LastProcessed 2024-03-15, got %q", got.LastProcessed)
	}

	// idempotent
	if err := tr.MarkProcessed(ctx, rent.ID, now); err != nil {
		t.Fatalf("second MarkProcessed failed: %v", err)
	}
	if n := len(tr.ProcessedLog()[rent.ID]); n != 1 {
		t.Errorf("Expected one processed entry, got %d", n)
	}

	// next month is due again
	if n := len(tr.DueToday(date(2024, 4, 15))); n != 1 {
		t.Errorf("Expected Rent due again in April, got %d", n)
	}
}

func TestMarkProcessedUnknownID(t *testing.T) {
	tr := newExpenses(t, storage.NewMemory())
	err := tr.MarkProcessed(context.Background(), "missing-id", date(2024, 1, 1))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpcomingWindow(t *testing.T) {
	tr := newExpenses(t, storage.NewMemory())
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15), ReminderLeadDays: 3})

	tests := []struct {
		name string
		now  time.Time
		want int // -1 when excluded
	}{
		{"two days before", date(2024, 3, 13), 2},
		{"three days before", date(2024, 3, 12), 3},
		{"five days before", date(2024, 3, 10), -1},
		{"due today is not upcoming", date(2024, 3, 15), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Upcoming(tt.now)
			if tt.want < 0 {
				if len(got) != 0 {
					t.Errorf("Expected no reminders, got %v", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("Expected one reminder, got %d", len(got))
			}
			if got[0].Obligation.ID != ob.ID {
				t.Errorf("Expected reminder for %s, got %s", ob.ID, got[0].Obligation.ID)
			}
			if got[0].DaysUntil != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got[0].DaysUntil, tt.want)
			}
			if due := got[0].DueDate.Format("2006-01-02"); due != "2024-03-15" {
				t.Errorf("DueDate = %s, want 2024-03-15", due)
			}
		})
	}
}

func TestUpcomingSortedByDaysUntil(t *testing.T) {
	obs := []models.Obligation{
		{ID: "far", Active: true, Rule: models.Rule{Cycle: models.CycleMonthly, DayOfMonth: 20}, ReminderLeadDays: 10},
		{ID: "near", Active: true, Rule: models.Rule{Cycle: models.CycleMonthly, DayOfMonth: 12}, ReminderLeadDays: 10},
		{ID: "zero-lead", Active: true, Rule: models.Rule{Cycle: models.CycleMonthly, DayOfMonth: 11}},
	}
	got := UpcomingFor(obs, date(2024, 3, 10))
	if len(got) != 2 {
		t.Fatalf("Expected two reminders, got %d", len(got))
	}
	if got[0].Obligation.ID != "near" || got[1].Obligation.ID != "far" {
		t.Errorf("Expected order [near far], got [%s %s]", got[0].Obligation.ID, got[1].Obligation.ID)
	}
}

func TestInactiveObligationsAreIgnored(t *testing.T) {
	ctx := context.Background()
	tr := newExpenses(t, storage.NewMemory())
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15), ReminderLeadDays: 3})

	active, err := tr.ToggleActive(ctx, ob.ID)
	if err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	if active {
		t.Fatal("Expected obligation to be paused")
	}

	if n := len(tr.DueToday(date(2024, 3, 15))); n != 0 {
		t.Errorf("Expected paused obligation not due, got %d", n)
	}
	if n := len(tr.Upcoming(date(2024, 3, 13))); n != 0 {
		t.Errorf("Expected no reminders for paused obligation, got %d", n)
	}
	if n := len(tr.MonthlyTotal()); n != 0 {
		t.Errorf("Expected empty monthly total, got %v", tr.MonthlyTotal())
	}

	active, err = tr.ToggleActive(ctx, ob.ID)
	if err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	if !active {
		t.Fatal("Expected obligation to be active again")
	}
	if n := len(tr.DueToday(date(2024, 3, 15))); n != 1 {
		t.Errorf("Expected reactivated obligation due, got %d", n)
	}
}

func TestTotalsPerUnit(t *testing.T) {
	tr := newExpenses(t, storage.NewMemory())
	yearly, err := recurrence.Yearly(1, 10)
	if err != nil {
		t.Fatalf("Yearly failed: %v", err)
	}

	for _, d := range []Draft{
		{Name: "Rent", Payload: usd("1200.50"), Rule: monthly(t, 1)},
		{Name: "Phone", Payload: usd("40.25"), Rule: monthly(t, 5)},
		{Name: "Internet", Payload: models.Quantity{Amount: decimal.NewFromInt(15000), Unit: models.UnitARS}, Rule: monthly(t, 9)},
		{Name: "Domain", Payload: usd("12"), Rule: yearly},
	} {
		mustAdd(t, tr, d)
	}

	monthlyTotal := tr.MonthlyTotal()
	if got := monthlyTotal[models.UnitUSD]; !got.Equal(decimal.RequireFromString("1240.75")) {
		t.Errorf("Monthly USD = %s, want 1240.75", got)
	}
	if got := monthlyTotal[models.UnitARS]; !got.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("Monthly ARS = %s, want 15000", got)
	}
	if units := monthlyTotal.Units(); !slices.Equal(units, []models.Unit{models.UnitARS, models.UnitUSD}) {
		t.Errorf("Units() = %v, want [ARS USD]", units)
	}

	yearlyTotal := tr.YearlyTotal()
	if len(yearlyTotal) != 1 {
		t.Errorf("Expected one yearly unit, got %d", len(yearlyTotal))
	}
	if got := yearlyTotal.String(); got != "12.00 USD" {
		t.Errorf("YearlyTotal() = %q, want %q", got, "12.00 USD")
	}
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	tr := newExpenses(t, store)
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15)})

	store.FailSaves = errors.New("disk full")

	err := tr.MarkProcessed(ctx, ob.ID, date(2024, 3, 15))
	if !apperr.IsPersistFailure(err) {
		t.Fatalf("Expected a persist failure, got %v", err)
	}
	if !tr.WasProcessed(ob.ID, date(2024, 3, 15)) {
		t.Error("Expected the in-memory log to keep the processed entry")
	}
	if n := len(tr.DueToday(date(2024, 3, 15))); n != 0 {
		t.Errorf("Expected nothing due in memory, got %d", n)
	}

	added, err := tr.Add(ctx, Draft{Name: "Gym", Payload: usd("30"), Rule: monthly(t, 1)})
	if !apperr.IsPersistFailure(err) {
		t.Errorf("Expected a persist failure from Add, got %v", err)
	}
	if _, err := tr.Get(added.ID); err != nil {
		t.Errorf("Expected Gym to stay in memory: %v", err)
	}

	// the store still has the state from before the failure
	store.FailSaves = nil
	reloaded := newExpenses(t, store)
	if n := len(reloaded.List()); n != 1 {
		t.Errorf("Expected one stored obligation, got %d", n)
	}
	if reloaded.WasProcessed(ob.ID, date(2024, 3, 15)) {
		t.Error("Expected the stored log to lack the failed entry")
	}
}

func TestMarkProcessedRetryAfterPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	tr := newExpenses(t, store)
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15)})

	store.FailSaves = errors.New("disk full")
	if err := tr.MarkProcessed(ctx, ob.ID, date(2024, 3, 15)); !apperr.IsPersistFailure(err) {
		t.Fatalf("Expected a persist failure, got %v", err)
	}

	store.FailSaves = nil
	if err := tr.MarkProcessed(ctx, ob.ID, date(2024, 3, 15)); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	reloaded := newExpenses(t, store)
	if !reloaded.WasProcessed(ob.ID, date(2024, 3, 15)) {
		t.Error("Expected the retried entry to be stored")
	}
	if n := len(reloaded.DueToday(date(2024, 3, 15))); n != 0 {
		t.Errorf("Expected nothing due after reload, got %d", n)
	}
	got, err := reloaded.Get(ob.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.LastProcessed != "2024-03-15" {
		t.Errorf("Expected stored LastProcessed 2024-03-15, got %q", got.LastProcessed)
	}
}

func TestMarkProcessedTwiceWritesOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	tr := newExpenses(t, store)
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15)})
	if err := tr.MarkProcessed(ctx, ob.ID, date(2024, 3, 15)); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	// a clean repeat must not touch the store
	store.FailSaves = errors.New("disk full")
	if err := tr.MarkProcessed(ctx, ob.ID, date(2024, 3, 15)); err != nil {
		t.Errorf("Expected repeat to be a no-op, got %v", err)
	}
}

func TestKindsUseSeparateKeys(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	expenses := newExpenses(t, store)
	meds := New(store, "default", models.KindMedication)
	if err := meds.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	mustAdd(t, expenses, Draft{Name: "Rent", Payload: usd("1"), Rule: recurrence.Daily()})
	mustAdd(t, meds, Draft{Name: "Ibuprofen", Rule: recurrence.Daily(), TimeOfDay: "08:00"})

	names, err := store.Keys(ctx, "default")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	slices.Sort(names)
	if want := []string{"obligations/expenses", "obligations/medications"}; !slices.Equal(names, want) {
		t.Errorf("Keys() = %v, want %v", names, want)
	}
}

func TestUpdateRemoveAndPrefixLookup(t *testing.T) {
	ctx := context.Background()
	tr := newExpenses(t, storage.NewMemory())
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1200"), Rule: monthly(t, 15)})
	if err := tr.MarkProcessed(ctx, ob.ID, date(2024, 3, 15)); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	d := DraftOf(ob)
	d.Payload = usd("1300")
	updated, err := tr.Update(ctx, ob.ID[:8], d)
	if err != nil {
		t.Fatalf("Update by prefix failed: %v", err)
	}
	if !updated.Payload.Amount.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("Expected amount 1300, got %s", updated.Payload.Amount)
	}
	if !updated.Active {
		t.Error("Expected update to keep the obligation active")
	}
	if updated.LastProcessed != "2024-03-15" {
		t.Errorf("Expected update to keep LastProcessed, got %q", updated.LastProcessed)
	}

	if err := tr.Remove(ctx, ob.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if n := len(tr.List()); n != 0 {
		t.Errorf("Expected no obligations, got %d", n)
	}
	if n := len(tr.ProcessedLog()); n != 0 {
		t.Errorf("Expected processed log to drop the removed id, got %d entries", n)
	}
	if err := tr.Remove(ctx, ob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOnChangeHook(t *testing.T) {
	ctx := context.Background()
	calls := 0
	tr := New(storage.NewMemory(), "default", models.KindExpense, WithOnChange(func() { calls++ }))
	ob := mustAdd(t, tr, Draft{Name: "Rent", Payload: usd("1"), Rule: recurrence.Daily()})
	if _, err := tr.ToggleActive(ctx, ob.ID); err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 change notifications, got %d", calls)
	}
}

func TestReturnedTakenLedgerIsACopy(t *testing.T) {
	ctx := context.Background()
	meds := New(storage.NewMemory(), "default", models.KindMedication)
	ob := mustAdd(t, meds, Draft{Name: "Iron", Rule: recurrence.Daily(), TimeOfDay: "09:00"})
	if _, err := meds.ToggleTaken(ctx, ob.ID, date(2024, 3, 1)); err != nil {
		t.Fatalf("ToggleTaken failed: %v", err)
	}

	got, _ := meds.Get(ob.ID)
	got.Taken["2024-03-02"] = true
	meds.List()[0].Taken["2024-03-03"] = true

	if meds.TakenOn(ob.ID, date(2024, 3, 2)) || meds.TakenOn(ob.ID, date(2024, 3, 3)) {
		t.Error("Expected edits to returned ledgers not to reach the tracker")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	fixed := clock.NewFixed(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	meds := New(store, "default", models.KindMedication, WithClock(fixed))
	if err := meds.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	mustAdd(t, meds, Draft{
		Name:      "Iron",
		Payload:   models.Quantity{Amount: decimal.NewFromInt(1), Unit: models.UnitPill},
		Rule:      recurrence.Daily(),
		TimeOfDay: "09:00",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Remind:    true,
	})
	ob := mustAdd(t, meds, Draft{Name: "Vitamin D", Rule: monthly(t, 31), TimeOfDay: "20:00", Permanent: true})
	if _, err := meds.ToggleTaken(ctx, ob.ID, date(2024, 3, 31)); err != nil {
		t.Fatalf("ToggleTaken failed: %v", err)
	}

	reloaded := New(store, "default", models.KindMedication, WithClock(fixed))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want, err := json.Marshal(meds.List())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := json.Marshal(reloaded.List())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Round trip changed obligations:\n got  %s\n want %s", got, want)
	}
	if !reloaded.TakenOn(ob.ID, date(2024, 3, 31)) {
		t.Error("Expected taken marker to survive reload")
	}
}
