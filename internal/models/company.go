package models

import "time"

// CompanyProfile is the issuing company printed on a tenant's invoices.
// A tenant has at most one.
type CompanyProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID string `gorm:"size:255;uniqueIndex;not null" json:"user_id"`

	// Company information
	Name    string `gorm:"size:200;not null" json:"name"`
	TaxID   string `gorm:"size:20;not null" json:"tax_id"`
	Phone   string `gorm:"size:20" json:"phone,omitempty"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Website string `gorm:"size:255" json:"website,omitempty"`

	// Address
	Address    string `gorm:"type:text" json:"address,omitempty"`
	PostalCode string `gorm:"size:10" json:"postal_code,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	Province   string `gorm:"size:100" json:"province,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`

	// Printed at the bottom of invoices
	IBAN         string `gorm:"size:50" json:"iban,omitempty"`
	Bank         string `gorm:"size:100" json:"bank,omitempty"`
	LegalText    string `gorm:"type:text" json:"legal_text,omitempty"`
	PaymentTerms string `gorm:"type:text" json:"payment_terms,omitempty"`
}

// FullAddress returns the formatted full address. The province, when set,
// follows the city.
func (c *CompanyProfile) FullAddress() string {
	city := c.City
	if c.Province != "" {
		if city != "" {
			city += ", "
		}
		city += c.Province
	}
	return joinAddress(c.Address, c.PostalCode, city, c.Country)
}
