package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product or service a tenant sells.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this product (for multi-tenant isolation)
	UserID string `gorm:"size:255;index;not null" json:"user_id"`

	Code        string          `gorm:"size:50" json:"code,omitempty"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"unit_price"`

	// TaxRate is a percentage (21 = 21%)
	TaxRate   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"tax_rate"`
	IsService bool            `gorm:"not null" json:"is_service"`
	Active    bool            `gorm:"not null" json:"active"`
}
