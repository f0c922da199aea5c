package models

import "time"

// Habit represents a recurring practice to track
type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rule      Rule      `json:"rule"`
	History   Ledger    `json:"history"`
	Streak    int       `json:"streak"` // display cache, recomputed on load and toggle
	CreatedAt time.Time `json:"created_at"`
}
