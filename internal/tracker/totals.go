package tracker

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/recur/internal/models"
)

// Totals maps a unit to the summed amount in that unit. Amounts in different
// units are never converted into each other.
type Totals map[models.Unit]decimal.Decimal

// Units returns the units present, sorted
func (t Totals) Units() []models.Unit {
	units := make([]models.Unit, 0, len(t))
	for u := range t {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

func (t Totals) String() string {
	if len(t) == 0 {
		return "0"
	}
	parts := make([]string, 0, len(t))
	for _, u := range t.Units() {
		parts = append(parts, models.Quantity{Amount: t[u], Unit: u}.String())
	}
	return strings.Join(parts, ", ")
}

// TotalsFor sums the payload of active obligations with the given cycle.
func TotalsFor(obs []models.Obligation, cycle models.Cycle) Totals {
	out := Totals{}
	for _, ob := range obs {
		if !ob.Active || ob.Rule.Cycle != cycle {
			continue
		}
		out[ob.Payload.Unit] = out[ob.Payload.Unit].Add(ob.Payload.Amount)
	}
	return out
}
