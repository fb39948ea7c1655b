package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/facturo/internal/models"
)

// MonthlyRevenue is the invoiced amount of one calendar month.
type MonthlyRevenue struct {
	Month    int             `json:"month"`
	Invoices int             `json:"invoices"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// Revenue sums the tenant's paid invoices dated in year, per month. Months
// without paid invoices are present with zero amounts. Amounts are added in
// Go so no precision is lost to SQL aggregates.
func (s *Store) Revenue(ctx context.Context, tenantID string, year int) ([]MonthlyRevenue, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var rows []models.Invoice
	err := s.scoped(ctx, tenantID).
		Select("date", "subtotal", "total").
		Where("status = ?", models.InvoiceStatusPaid).
		Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0)).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]MonthlyRevenue, 12)
	for i := range out {
		out[i] = MonthlyRevenue{Month: i + 1, Subtotal: decimal.Zero, Total: decimal.Zero}
	}
	for _, inv := range rows {
		m := &out[inv.Date.Month()-1]
		m.Invoices++
		m.Subtotal = m.Subtotal.Add(inv.Subtotal)
		m.Total = m.Total.Add(inv.Total)
	}
	return out, nil
}
