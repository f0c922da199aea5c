package models

// Appointment is a one-off dated event
type Appointment struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"` // YYYY-MM-DD format
	Time     string `json:"time"` // HH:MM format
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Task is a to-do item with an optional deadline
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Deadline string `json:"deadline,omitempty"` // YYYY-MM-DD format
	Time     string `json:"time,omitempty"`     // HH:MM format
	Progress int    `json:"progress"`           // 0-100
	Priority string `json:"priority,omitempty"`
}

// Done reports whether the task is complete
func (t Task) Done() bool {
	return t.Progress >= 100
}

// PrayerTime is a named daily time (HH:MM)
type PrayerTime struct {
	Name string `json:"name"`
	Time string `json:"time"`
}
