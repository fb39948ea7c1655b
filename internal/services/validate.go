// Package services holds the business operations behind the HTTP handlers:
// plan limit checks, invoice numbering and totals, and input validation.
package services

import (
	"github.com/shopspring/decimal"

	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/validation"
)

// MoneyPlaces is the number of decimals accepted on amounts, quantities and
// tax rates.
const MoneyPlaces = 2

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)

	// maxAmount bounds quantities, prices and invoice totals: amount
	// columns are decimal(20,8), which leaves 12 integer digits.
	maxAmount = decimal.New(1, 12)
)

// ValidateClient checks the writable client fields.
func ValidateClient(c *models.Client) error {
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	return v.Err()
}

// ValidateProduct checks the writable product fields.
func ValidateProduct(p *models.Product) error {
	v := validation.Violations{}
	validation.Required("name", p.Name, v)
	validation.NonNegativeDecimal("unit_price", p.UnitPrice, v)
	validation.MaxScale("unit_price", p.UnitPrice, MoneyPlaces, v)
	validation.BelowDecimal("unit_price", p.UnitPrice, maxAmount, v)
	validation.RangeDecimal("tax_rate", p.TaxRate, zero, hundred, v)
	validation.MaxScale("tax_rate", p.TaxRate, MoneyPlaces, v)
	return v.Err()
}

// ValidateCompanyProfile checks the writable company profile fields.
func ValidateCompanyProfile(p *models.CompanyProfile) error {
	v := validation.Violations{}
	validation.Required("name", p.Name, v)
	validation.Required("tax_id", p.TaxID, v)
	return v.Err()
}
