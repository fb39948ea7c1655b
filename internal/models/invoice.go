package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/facturo/internal/totals"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ErrInvalidStatus is returned for a status outside the closed set.
var ErrInvalidStatus = errors.New("invalid invoice status")

// ParseInvoiceStatus validates s.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	st := InvoiceStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

func (s *InvoiceStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseInvoiceStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Invoice is a numbered bill issued by a tenant to one of its clients.
// Subtotal, TaxTotal and Total are derived from Lines and never set directly.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this invoice (for multi-tenant isolation)
	UserID string `gorm:"size:255;index;not null;uniqueIndex:idx_invoice_tenant_number,priority:1" json:"user_id"`

	// Number is assigned once at creation, "2025-0001".
	Number string `gorm:"size:50;not null;uniqueIndex:idx_invoice_tenant_number,priority:2" json:"number"`

	// Date is the invoice date; its year scopes the number sequence.
	Date time.Time `gorm:"type:date;not null;index" json:"date"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Status InvoiceStatus `gorm:"size:20;not null;default:'draft'" json:"status"`
	Notes  string        `gorm:"type:text" json:"notes,omitempty"`

	Subtotal decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"subtotal"`
	TaxTotal decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"tax_total"`
	Total    decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines"`
}

// Totals recomputes the aggregates from the lines.
func (i *Invoice) Totals() totals.Totals {
	lines := make([]totals.Line, len(i.Lines))
	for n := range i.Lines {
		lines[n] = i.Lines[n].TotalsLine()
	}
	return totals.Compute(lines)
}

// ApplyTotals recomputes every line subtotal and the invoice aggregates.
func (i *Invoice) ApplyTotals() {
	for n := range i.Lines {
		i.Lines[n].Subtotal = totals.LineSubtotal(i.Lines[n].TotalsLine())
	}
	t := i.Totals()
	i.Subtotal = t.Subtotal
	i.TaxTotal = t.TaxTotal
	i.Total = t.Total
}

// InvoiceLine is one product line of an invoice.
type InvoiceLine struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`

	// Description defaults to the product name
	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"tax_rate"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"subtotal"`

	// Position keeps the request order
	Position int `gorm:"not null;default:0" json:"position"`
}

func (l *InvoiceLine) TotalsLine() totals.Line {
	return totals.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice, TaxRate: l.TaxRate}
}
