package models

import "time"

// Client represents a customer of a tenant.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this client (for multi-tenant isolation)
	UserID string `gorm:"size:255;index;not null" json:"user_id"`

	Name  string `gorm:"size:200;not null" json:"name"`
	TaxID string `gorm:"size:20" json:"tax_id,omitempty"`
	Email string `gorm:"size:200" json:"email,omitempty"`
	Phone string `gorm:"size:20" json:"phone,omitempty"`

	// Address
	Address    string `gorm:"type:text" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:10" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
}

// FullAddress returns the formatted full address.
func (c *Client) FullAddress() string {
	return joinAddress(c.Address, c.PostalCode, c.City, c.Country)
}
