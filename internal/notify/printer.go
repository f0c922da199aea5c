package notify

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/julianstephens/recur/internal/models"
)

// Printer writes each plan it receives to w instead of scheduling it.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Replace(ctx context.Context, plan []models.Notification) error {
	if len(plan) == 0 {
		_, err := fmt.Fprintln(p.w, "No notifications planned.")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIRE AT\tCHANNEL\tTITLE\tBODY")
	for _, n := range plan {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.FireAt.Format("2006-01-02 15:04:05"), n.Channel, n.Title, n.Body)
	}
	return tw.Flush()
}
