package store

import (
	"context"
	"time"

	"github.com/diewo77/facturo/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceFilter narrows ListInvoices. Zero values do not filter.
type InvoiceFilter struct {
	Status   models.InvoiceStatus
	ClientID uint
	// From and To bound the invoice date, both inclusive.
	From *time.Time
	To   *time.Time
	Page Page
}

// InvoiceSummary is a list row.
type InvoiceSummary struct {
	ID         uint                 `json:"id"`
	Number     string               `json:"number"`
	Date       time.Time            `json:"date"`
	ClientID   uint                 `json:"client_id"`
	ClientName string               `json:"client_name"`
	Total      decimal.Decimal      `json:"total"`
	Status     models.InvoiceStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ListInvoices returns the newest invoices first.
func (s *Store) ListInvoices(ctx context.Context, tenantID string, f InvoiceFilter) ([]InvoiceSummary, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("invoices.id, invoices.number, invoices.date, invoices.client_id, clients.name AS client_name, "+
			"invoices.total, invoices.status, invoices.created_at").
		Joins("JOIN clients ON clients.id = invoices.client_id").
		Where("invoices.user_id = ?", tenantID)
	if f.Status != "" {
		q = q.Where("invoices.status = ?", f.Status)
	}
	if f.ClientID != 0 {
		q = q.Where("invoices.client_id = ?", f.ClientID)
	}
	if f.From != nil {
		q = q.Where("invoices.date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("invoices.date <= ?", f.To.UTC())
	}
	var out []InvoiceSummary
	err := f.Page.apply(q.Order("invoices.date DESC, invoices.id DESC")).Scan(&out).Error
	return out, translate(err)
}

// GetInvoice loads an invoice with its client and ordered lines.
func (s *Store) GetInvoice(ctx context.Context, tenantID string, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.scoped(ctx, tenantID).
		Preload("Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		First(&inv, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// CreateInvoice inserts the invoice and its lines in one transaction.
// ErrDuplicate means the number was taken concurrently.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Client").Create(inv).Error
	}))
}

// UpdateInvoice writes the invoice columns and, when replaceLines is set,
// swaps the whole line collection, in one transaction.
func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice, replaceLines bool) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return err
		}
		if !replaceLines {
			return nil
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		if len(inv.Lines) == 0 {
			return nil
		}
		for i := range inv.Lines {
			inv.Lines[i].ID = 0
			inv.Lines[i].InvoiceID = inv.ID
		}
		return tx.Omit("Product").Create(&inv.Lines).Error
	}))
}

// DeleteInvoice removes the invoice and its lines in one transaction.
func (s *Store) DeleteInvoice(ctx context.Context, tenantID string, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Where("user_id = ?", tenantID).Select("id").First(&inv, id).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, inv.ID).Error
	}))
}
