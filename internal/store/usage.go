package store

import (
	"context"
	"time"

	"github.com/diewo77/facturo/internal/models"
)

// CountClients returns how many clients the tenant owns.
func (s *Store) CountClients(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := s.scoped(ctx, tenantID).Model(&models.Client{}).Count(&n).Error
	return n, translate(err)
}

// CountInvoicesSince counts invoices created at or after since. The invoice
// date is not considered.
func (s *Store) CountInvoicesSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	var n int64
	err := s.scoped(ctx, tenantID).Model(&models.Invoice{}).
		Where("created_at >= ?", since.UTC()).
		Count(&n).Error
	return n, translate(err)
}

// LatestInvoiceNumber returns the greatest number, in string order, among the
// tenant's invoices dated in year.
func (s *Store) LatestInvoiceNumber(ctx context.Context, tenantID string, year int) (string, bool, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var numbers []string
	err := s.scoped(ctx, tenantID).Model(&models.Invoice{}).
		Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0)).
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", false, translate(err)
	}
	if len(numbers) == 0 {
		return "", false, nil
	}
	return numbers[0], true, nil
}

// InvoiceNumbers returns the numbers of the tenant's invoices dated in year,
// in no particular order.
func (s *Store) InvoiceNumbers(ctx context.Context, tenantID string, year int) ([]string, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var numbers []string
	err := s.scoped(ctx, tenantID).Model(&models.Invoice{}).
		Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0)).
		Pluck("number", &numbers).Error
	if err != nil {
		return nil, translate(err)
	}
	return numbers, nil
}

// Stats are the dashboard counters of a tenant.
type Stats struct {
	Clients  int64 `json:"clients"`
	Products int64 `json:"products"`
	Invoices int64 `json:"invoices"`
}

func (s *Store) Stats(ctx context.Context, tenantID string) (Stats, error) {
	var st Stats
	if err := s.scoped(ctx, tenantID).Model(&models.Client{}).Count(&st.Clients).Error; err != nil {
		return Stats{}, translate(err)
	}
	if err := s.scoped(ctx, tenantID).Model(&models.Product{}).Count(&st.Products).Error; err != nil {
		return Stats{}, translate(err)
	}
	if err := s.scoped(ctx, tenantID).Model(&models.Invoice{}).Count(&st.Invoices).Error; err != nil {
		return Stats{}, translate(err)
	}
	return st, nil
}
