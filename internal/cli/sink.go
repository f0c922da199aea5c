package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/recur/internal/notifier"
	"github.com/julianstephens/recur/internal/notify"
)

// NotificationService builds the configured sink. For the tray sink the
// returned Local must be run for anything to be delivered; it is nil otherwise.
func (c *Context) NotificationService(ctx context.Context, dryRun bool) (notify.Service, *notify.Local, error) {
	sink := c.Config.Notify.Sink
	if dryRun {
		sink = "print"
	}
	switch sink {
	case "print":
		return notify.NewPrinter(c.Out), nil, nil
	case "queue":
		q, err := notify.NewQueue(ctx, c.Config.Azure.QueueServiceURL, c.Config.Azure.QueueName, c.Config.Owner)
		if err != nil {
			return nil, nil, err
		}
		return q, nil, nil
	case "tray":
		local := notify.NewLocal(notifier.New(), c.Clock)
		return local, local, nil
	}
	return nil, nil, fmt.Errorf("unknown notify sink %q", sink)
}
