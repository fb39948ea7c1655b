// Package validation collects per-field violations as message codes.
package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/diewo77/facturo/i18n"
	"github.com/shopspring/decimal"
)

// Violations maps a field name to a message code understood by i18n.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Err returns nil when there is nothing to report.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error is returned when a request fails validation.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e.Violations[f]
	}
	return fmt.Sprintf("validation failed (%s)", strings.Join(parts, ", "))
}

// Localize translates every code into lang.
func (e *Error) Localize(lang string) map[string]string {
	out := make(map[string]string, len(e.Violations))
	for f, code := range e.Violations {
		out[f] = i18n.T(lang, code)
	}
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v.Add(field, "must_be_positive")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v.Add(field, "out_of_range")
	}
}

// BelowDecimal rejects values that are not strictly less than limit.
func BelowDecimal(field string, val, limit decimal.Decimal, v Violations) {
	if !val.LessThan(limit) {
		v.Add(field, "out_of_range")
	}
}

// MaxScale rejects values with more than places decimal digits.
func MaxScale(field string, val decimal.Decimal, places int32, v Violations) {
	if !val.Equal(val.Truncate(places)) {
		v.Add(field, "too_many_decimals")
	}
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date parses value as a calendar date in UTC. It records a violation and
// returns the zero time when value is empty or malformed.
func Date(field, value string, v Violations) time.Time {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
		return time.Time{}
	}
	d, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		v.Add(field, "invalid_date")
		return time.Time{}
	}
	return d
}
