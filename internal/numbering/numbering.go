// Package numbering assigns sequential, per-tenant, per-year invoice numbers
// of the form "2025-0001".
//
// The latest number is found by ordering the stored number strings in
// descending order. That matches numeric order only while every number keeps
// the same year prefix and four-digit padding, so a tenant issuing more than
// 9999 invoices in one year will see the sequence misorder after 9999.
package numbering

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/diewo77/facturo/internal/metrics"
	"go.uber.org/zap"
)

// Width is the zero-padded width of the sequence part.
const Width = 4

// Format renders the number for seq in year.
func Format(year, seq int) string {
	return fmt.Sprintf("%d-%0*d", year, Width, seq)
}

// ParseSequence extracts the sequence between the first and second '-'.
// Negative values and values with no successor in an int are rejected.
func ParseSequence(number string) (int, bool) {
	parts := strings.Split(number, "-")
	if len(parts) < 2 {
		return 0, false
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil || seq < 0 || seq == math.MaxInt {
		return 0, false
	}
	return seq, true
}

// LatestFinder looks up the highest stored number for a tenant and year.
// found is false when the tenant has no invoice dated in year.
type LatestFinder interface {
	LatestInvoiceNumber(ctx context.Context, tenantID string, year int) (number string, found bool, err error)
}

// NumberLister lists every stored number of a tenant's invoices dated in
// year. When the finder also implements it, a malformed latest number
// resumes after the highest parseable one instead of restarting at 1.
type NumberLister interface {
	InvoiceNumbers(ctx context.Context, tenantID string, year int) ([]string, error)
}

// Assigner computes the next invoice number. It keeps no state between calls;
// two concurrent calls for the same tenant and year can return the same
// number, so callers must rely on a uniqueness constraint and retry.
type Assigner struct {
	finder LatestFinder
	log    *zap.Logger
}

// NewAssigner creates an Assigner reading from finder.
func NewAssigner(finder LatestFinder, log *zap.Logger) *Assigner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assigner{finder: finder, log: log}
}

// Next returns the next number for tenantID in year. A tenant without prior
// invoices in year starts at 1. When the latest stored number cannot be
// parsed, the sequence continues after the highest number that can, or
// restarts at 1 if none can; this is reported but never returned as an error.
func (a *Assigner) Next(ctx context.Context, tenantID string, year int) (string, error) {
	last, found, err := a.finder.LatestInvoiceNumber(ctx, tenantID, year)
	if err != nil {
		return "", fmt.Errorf("latest invoice number: %w", err)
	}
	if !found || last == "" {
		return Format(year, 1), nil
	}
	if seq, ok := ParseSequence(last); ok {
		return Format(year, seq+1), nil
	}

	metrics.InvoiceNumberFallbacksTotal.WithLabelValues("malformed").Inc()
	seq, err := a.highestSequence(ctx, tenantID, year)
	if err != nil {
		return "", err
	}
	a.log.Warn("stored invoice number is malformed",
		zap.String("tenant_id", tenantID),
		zap.Int("year", year),
		zap.String("stored_number", last),
		zap.Int("resume_after", seq),
	)
	return Format(year, seq+1), nil
}

// highestSequence returns the largest parseable sequence in year, or 0.
func (a *Assigner) highestSequence(ctx context.Context, tenantID string, year int) (int, error) {
	lister, ok := a.finder.(NumberLister)
	if !ok {
		return 0, nil
	}
	numbers, err := lister.InvoiceNumbers(ctx, tenantID, year)
	if err != nil {
		return 0, fmt.Errorf("list invoice numbers: %w", err)
	}
	highest := 0
	for _, n := range numbers {
		if seq, ok := ParseSequence(n); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}
