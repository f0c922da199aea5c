// Package notify applies plans produced by the planner. A Service always
// receives the complete plan and replaces whatever it had pending.
package notify

import (
	"context"

	"github.com/julianstephens/recur/internal/models"
)

// Service replaces its whole pending set with plan.
type Service interface {
	Replace(ctx context.Context, plan []models.Notification) error
}

// Sender delivers one notification immediately.
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, n models.Notification) error

func (f SenderFunc) Send(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}
