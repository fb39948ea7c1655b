// Package totals derives invoice subtotal, tax and grand total from line
// items using exact decimal arithmetic.
package totals

import (
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimals used when amounts are shown.
const DisplayPlaces = 2

// Line is the arithmetic view of an invoice line item.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	// TaxRate is a percentage between 0 and 100.
	TaxRate decimal.Decimal
}

// Totals holds the invoice-level aggregates. Total always equals
// Subtotal + TaxTotal.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxTotal decimal.Decimal `json:"tax_total"`
	Total    decimal.Decimal `json:"total"`
}

// LineSubtotal returns quantity × unit price.
func LineSubtotal(l Line) decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// LineTax returns the tax amount of one line. The percentage is applied by
// shifting the exponent, so no precision is lost.
func LineTax(l Line) decimal.Decimal {
	return LineSubtotal(l).Mul(l.TaxRate).Shift(-2)
}

// Compute sums lines into invoice totals. An empty slice yields zero totals.
func Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineSubtotal(l))
		tax = tax.Add(LineTax(l))
	}
	return Totals{
		Subtotal: subtotal,
		TaxTotal: tax,
		Total:    subtotal.Add(tax),
	}
}

// Consistent reports whether Total equals Subtotal + TaxTotal exactly.
func (t Totals) Consistent() bool {
	return t.Total.Equal(t.Subtotal.Add(t.TaxTotal))
}

// Formatted renders the three amounts with DisplayPlaces decimals.
func (t Totals) Formatted() (subtotal, tax, total string) {
	return Format(t.Subtotal), Format(t.TaxTotal), Format(t.Total)
}

// Format renders an amount with DisplayPlaces decimals, rounding half away
// from zero.
func Format(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}
