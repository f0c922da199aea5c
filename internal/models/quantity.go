package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit tags the amount carried by an obligation. Expenses use a currency,
// medications use a dose unit.
type Unit string

const (
	UnitARS Unit = "ARS"
	UnitUSD Unit = "USD"
	UnitEUR Unit = "EUR"

	UnitMilligram  Unit = "mg"
	UnitMilliliter Unit = "ml"
	UnitPill       Unit = "pill"
	UnitDrop       Unit = "drop"
)

var currencies = map[Unit]bool{UnitARS: true, UnitUSD: true, UnitEUR: true}

var doseUnits = map[Unit]bool{UnitMilligram: true, UnitMilliliter: true, UnitPill: true, UnitDrop: true}

// IsCurrency reports whether u is a supported currency code
func (u Unit) IsCurrency() bool { return currencies[u] }

// IsDose reports whether u is a supported dose unit
func (u Unit) IsDose() bool { return doseUnits[u] }

// ParseUnit normalizes and validates a unit string.
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if c := Unit(strings.ToUpper(s)); c.IsCurrency() {
		return c, nil
	}
	if d := Unit(strings.ToLower(s)); d.IsDose() {
		return d, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// Quantity is the payload of an obligation. The engine carries it but never
// interprets the amount beyond summing it.
type Quantity struct {
	Amount decimal.Decimal `json:"amount"`
	Unit   Unit            `json:"unit"`
}

func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", q.Amount.StringFixed(2), q.Unit)
}
