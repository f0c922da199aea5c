package models

import "time"

// Channel is the routing tag of a scheduled notification
type Channel string

const (
	ChannelPrayer      Channel = "prayer"
	ChannelAppointment Channel = "appointment"
	ChannelTask        Channel = "task"
	ChannelMedication  Channel = "medication"
	ChannelFinance     Channel = "finance"
)

// Notification is one planned delivery. It is a projection and is never persisted.
type Notification struct {
	ID      string    `json:"id"`
	FireAt  time.Time `json:"fire_at"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Channel Channel   `json:"channel"`
}
