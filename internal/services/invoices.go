package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/metrics"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/numbering"
	"github.com/diewo77/facturo/internal/pdf"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/internal/totals"
	"github.com/diewo77/facturo/validation"
)

// DefaultMaxAttempts bounds the number lookups made for one invoice when
// concurrent creations collide on the same number.
const DefaultMaxAttempts = 3

// LineInput is one requested invoice line. Description defaults to the
// product name.
type LineInput struct {
	ProductID   uint            `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

type CreateInvoiceInput struct {
	ClientID uint                 `json:"client_id"`
	Date     string               `json:"date"`
	Status   models.InvoiceStatus `json:"status"`
	Notes    string               `json:"notes"`
	Lines    []LineInput          `json:"lines"`
}

// UpdateInvoiceInput carries the fields to change; nil fields are kept.
// A non-nil Lines replaces the whole line collection.
type UpdateInvoiceInput struct {
	ClientID *uint                 `json:"client_id"`
	Date     *string               `json:"date"`
	Status   *models.InvoiceStatus `json:"status"`
	Notes    *string               `json:"notes"`
	Lines    *[]LineInput          `json:"lines"`
}

type InvoiceService struct {
	store       *store.Store
	limits      *billing.Evaluator
	numbers     *numbering.Assigner
	log         *zap.Logger
	maxAttempts int
}

type InvoiceOption func(*InvoiceService)

// WithMaxAttempts sets how many times creation retries a number taken by a
// concurrent request. Values below 1 are ignored.
func WithMaxAttempts(n int) InvoiceOption {
	return func(s *InvoiceService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewInvoiceService(st *store.Store, limits *billing.Evaluator, numbers *numbering.Assigner, log *zap.Logger, opts ...InvoiceOption) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &InvoiceService{
		store:       st,
		limits:      limits,
		numbers:     numbers,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validateLines checks each line, then that the invoice total stays below
// maxAmount.
func validateLines(lines []LineInput, v validation.Violations) {
	tl := make([]totals.Line, len(lines))
	for i, l := range lines {
		field := func(name string) string { return "lines[" + strconv.Itoa(i) + "]." + name }
		if l.ProductID == 0 {
			v.Add(field("product_id"), "required")
		}
		validation.PositiveDecimal(field("quantity"), l.Quantity, v)
		validation.MaxScale(field("quantity"), l.Quantity, MoneyPlaces, v)
		validation.BelowDecimal(field("quantity"), l.Quantity, maxAmount, v)
		validation.NonNegativeDecimal(field("unit_price"), l.UnitPrice, v)
		validation.MaxScale(field("unit_price"), l.UnitPrice, MoneyPlaces, v)
		validation.BelowDecimal(field("unit_price"), l.UnitPrice, maxAmount, v)
		validation.RangeDecimal(field("tax_rate"), l.TaxRate, zero, hundred, v)
		validation.MaxScale(field("tax_rate"), l.TaxRate, MoneyPlaces, v)
		tl[i] = totals.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice, TaxRate: l.TaxRate}
	}
	validation.BelowDecimal("lines", totals.Compute(tl).Total, maxAmount, v)
}

// buildLines resolves the products referenced by in, all of which must
// belong to the tenant. The same product may appear on several lines.
func (s *InvoiceService) buildLines(ctx context.Context, tenantID string, in []LineInput) ([]models.InvoiceLine, error) {
	ids := make([]uint, 0, len(in))
	seen := make(map[uint]bool, len(in))
	for _, l := range in {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	products, err := s.store.ProductsByID(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) != len(ids) {
		return nil, fmt.Errorf("product: %w", store.ErrNotFound)
	}

	lines := make([]models.InvoiceLine, len(in))
	for i, l := range in {
		desc := l.Description
		if desc == "" {
			desc = products[l.ProductID].Name
		}
		lines[i] = models.InvoiceLine{
			ProductID:   l.ProductID,
			Description: desc,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			Position:    i,
		}
	}
	return lines, nil
}

// Create validates in, enforces the monthly invoice limit, assigns the next
// number for the invoice year and stores the invoice with its lines and
// totals. A number taken concurrently is retried with a fresh lookup.
func (s *InvoiceService) Create(ctx context.Context, id auth.Identity, in CreateInvoiceInput) (*models.Invoice, error) {
	v := validation.Violations{}
	if in.ClientID == 0 {
		v.Add("client_id", "required")
	}
	date := validation.Date("date", in.Date, v)
	if in.Status == "" {
		in.Status = models.InvoiceStatusDraft
	} else if !in.Status.Valid() {
		v.Add("status", "invalid_status")
	}
	validateLines(in.Lines, v)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.limits.CheckInvoice(ctx, id.TenantID, id.Plan); err != nil {
		return nil, err
	}

	client, err := s.store.GetClient(ctx, id.TenantID, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client %d: %w", in.ClientID, err)
	}
	lines, err := s.buildLines(ctx, id.TenantID, in.Lines)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		UserID:   id.TenantID,
		Date:     date,
		ClientID: client.ID,
		Status:   in.Status,
		Notes:    in.Notes,
		Lines:    lines,
	}
	inv.ApplyTotals()

	if err := s.insertNumbered(ctx, inv); err != nil {
		return nil, err
	}
	inv.Client = client

	planID := s.limits.Catalog().LimitsFor(id.Plan).ID
	metrics.InvoicesCreatedTotal.WithLabelValues(planID).Inc()
	s.log.Info("invoice created",
		zap.String("tenant_id", id.TenantID),
		zap.String("number", inv.Number),
		zap.String("total", inv.Total.String()),
	)
	return inv, nil
}

func (s *InvoiceService) insertNumbered(ctx context.Context, inv *models.Invoice) error {
	year := inv.Date.Year()
	for attempt := 1; ; attempt++ {
		number, err := s.numbers.Next(ctx, inv.UserID, year)
		if err != nil {
			return err
		}
		inv.ID = 0
		inv.Number = number
		for i := range inv.Lines {
			inv.Lines[i].ID = 0
			inv.Lines[i].InvoiceID = 0
		}

		err = s.store.CreateInvoice(ctx, inv)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt >= s.maxAttempts {
			return fmt.Errorf("create invoice %s: %w", number, err)
		}
		metrics.InvoiceNumberConflictsTotal.Inc()
		s.log.Warn("invoice number taken, retrying",
			zap.String("tenant_id", inv.UserID),
			zap.String("number", number),
			zap.Int("attempt", attempt),
		)
	}
}

// Update applies in to invoice id. The number is never reassigned, even
// when the date moves to another year. Replacing the lines recomputes the
// totals in the same transaction.
func (s *InvoiceService) Update(ctx context.Context, tenantID string, id uint, in UpdateInvoiceInput) (*models.Invoice, error) {
	v := validation.Violations{}
	if in.ClientID != nil && *in.ClientID == 0 {
		v.Add("client_id", "required")
	}
	var date time.Time
	if in.Date != nil {
		date = validation.Date("date", *in.Date, v)
	}
	if in.Status != nil && !in.Status.Valid() {
		v.Add("status", "invalid_status")
	}
	if in.Lines != nil {
		validateLines(*in.Lines, v)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	inv, err := s.store.GetInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Date != nil {
		inv.Date = date
	}
	if in.ClientID != nil && *in.ClientID != inv.ClientID {
		client, err := s.store.GetClient(ctx, tenantID, *in.ClientID)
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", *in.ClientID, err)
		}
		inv.ClientID = client.ID
		inv.Client = client
	}
	if in.Status != nil {
		inv.Status = *in.Status
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	if in.Lines != nil {
		lines, err := s.buildLines(ctx, tenantID, *in.Lines)
		if err != nil {
			return nil, err
		}
		inv.Lines = lines
		inv.ApplyTotals()
	}

	if err := s.store.UpdateInvoice(ctx, inv, in.Lines != nil); err != nil {
		return nil, fmt.Errorf("update invoice %d: %w", id, err)
	}
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, tenantID string, id uint) (*models.Invoice, error) {
	return s.store.GetInvoice(ctx, tenantID, id)
}

func (s *InvoiceService) List(ctx context.Context, tenantID string, f store.InvoiceFilter) ([]store.InvoiceSummary, error) {
	return s.store.ListInvoices(ctx, tenantID, f)
}

// Delete removes the invoice and its lines. Its number is not reused unless
// it was the latest of its year.
func (s *InvoiceService) Delete(ctx context.Context, tenantID string, id uint) error {
	return s.store.DeleteInvoice(ctx, tenantID, id)
}

// Document loads everything needed to render invoice id. The company profile
// is optional and the totals are recomputed from the stored lines.
func (s *InvoiceService) Document(ctx context.Context, tenantID string, id uint) (pdf.Document, error) {
	inv, err := s.store.GetInvoice(ctx, tenantID, id)
	if err != nil {
		return pdf.Document{}, err
	}
	company, err := s.store.GetCompanyProfile(ctx, tenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return pdf.Document{}, fmt.Errorf("company profile: %w", err)
	}
	t := inv.Totals()
	if !t.Consistent() || !t.Total.Equal(inv.Total) {
		s.log.Warn("stored invoice totals differ from lines",
			zap.String("tenant_id", tenantID),
			zap.String("number", inv.Number),
			zap.String("stored_total", inv.Total.String()),
			zap.String("computed_total", t.Total.String()),
		)
	}
	return pdf.Document{
		Invoice: inv,
		Company: company,
		Totals:  t,
	}, nil
}
