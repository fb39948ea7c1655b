package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidators(t *testing.T) {
	d := decimal.RequireFromString
	v := Violations{}

	Required("name", "  ", v)
	PositiveDecimal("quantity", d("0"), v)
	NonNegativeDecimal("unit_price", d("-0.01"), v)
	RangeDecimal("tax_rate", d("100.5"), d("0"), d("100"), v)
	MaxScale("discount", d("1.005"), 2, v)
	BelowDecimal("total", d("1000"), d("1000"), v)

	assert.Equal(t, Violations{
		"total":      "out_of_range",
		"name":       "required",
		"quantity":   "must_be_positive",
		"unit_price": "must_not_be_negative",
		"tax_rate":   "out_of_range",
		"discount":   "too_many_decimals",
	}, v)
}

func TestValidators_Accept(t *testing.T) {
	d := decimal.RequireFromString
	v := Violations{}

	Required("name", "ACME", v)
	PositiveDecimal("quantity", d("0.01"), v)
	NonNegativeDecimal("unit_price", d("0"), v)
	RangeDecimal("tax_rate", d("100"), d("0"), d("100"), v)
	RangeDecimal("tax_rate", d("0"), d("0"), d("100"), v)
	MaxScale("unit_price", d("10.50"), 2, v)
	MaxScale("unit_price", d("3"), 2, v)
	BelowDecimal("total", d("999.99"), d("1000"), v)

	assert.True(t, v.Empty())
	assert.NoError(t, v.Err())
}

func TestFirstViolationWins(t *testing.T) {
	v := Violations{}
	PositiveDecimal("quantity", decimal.RequireFromString("-1"), v)
	MaxScale("quantity", decimal.RequireFromString("-1.001"), 2, v)
	assert.Equal(t, "must_be_positive", v["quantity"])
}

func TestErr(t *testing.T) {
	v := Violations{}
	Required("name", "", v)
	Required("email", "", v)

	err := v.Err()
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "validation failed (email: required, name: required)", err.Error())
	assert.Equal(t, map[string]string{"email": "Obligatorio", "name": "Obligatorio"}, verr.Localize("es"))
}

func TestDate(t *testing.T) {
	v := Violations{}
	got := Date("date", "2025-06-17", v)
	assert.True(t, v.Empty())
	assert.Equal(t, time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), got)

	Date("from", "17/06/2025", v)
	Date("to", "", v)
	assert.Equal(t, Violations{"from": "invalid_date", "to": "required"}, v)
}
