package models

import "time"

// ObligationKind separates expenses from medications. Both run through the
// same tracker but are stored under different keys.
type ObligationKind string

const (
	KindExpense    ObligationKind = "expenses"
	KindMedication ObligationKind = "medications"
)

// Obligation is a recurring expense or medication.
type Obligation struct {
	ID               string         `json:"id"`
	Kind             ObligationKind `json:"kind"`
	Name             string         `json:"name"`
	Payload          Quantity       `json:"payload"`
	Category         string         `json:"category,omitempty"`
	Rule             Rule           `json:"rule"`
	Active           bool           `json:"active"`
	ReminderLeadDays int            `json:"reminder_lead_days"`
	LastProcessed    string         `json:"last_processed,omitempty"` // YYYY-MM-DD, display only
	CreatedAt        time.Time      `json:"created_at"`

	// Medication fields
	TimeOfDay string `json:"time_of_day,omitempty"` // HH:MM format
	StartDate string `json:"start_date,omitempty"`  // YYYY-MM-DD format
	EndDate   string `json:"end_date,omitempty"`    // YYYY-MM-DD format
	Permanent bool   `json:"permanent,omitempty"`
	Remind    bool   `json:"remind,omitempty"`
	Taken     Ledger `json:"taken,omitempty"`
}
