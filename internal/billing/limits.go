// Package billing decides whether a tenant may create more clients or
// invoices under its subscription plan.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/facturo/i18n"
	"github.com/diewo77/facturo/internal/metrics"
	"github.com/diewo77/facturo/internal/plan"
	"go.uber.org/zap"
)

// Resources subject to plan limits.
const (
	ResourceClient  = "client"
	ResourceInvoice = "invoice"
)

// Decision is the outcome of a limit check. Reason is empty when allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

// LimitExceededError reports a creation refused by a plan limit.
// It is a client-visible, non-retryable condition, not a system fault.
type LimitExceededError struct {
	Resource string
	Limit    plan.Limit
	Plan     string
}

func (e *LimitExceededError) Error() string {
	return e.Message(i18n.DefaultLang)
}

// Message renders the denial in lang.
func (e *LimitExceededError) Message(lang string) string {
	code := "limit.clients"
	if e.Resource == ResourceInvoice {
		code = "limit.invoices"
	}
	return i18n.Tf(lang, code, int64(e.Limit), e.Plan)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(resource string, p plan.Plan, limit plan.Limit) Decision {
	err := &LimitExceededError{Resource: resource, Limit: limit, Plan: p.ID}
	return Decision{Reason: err.Error()}
}

// CanCreateClient reports whether a tenant on p owning currentClients clients
// may create one more.
func CanCreateClient(p plan.Plan, currentClients int64) Decision {
	if p.MaxClients.IsUnlimited() || currentClients < int64(p.MaxClients) {
		return allow()
	}
	return deny(ResourceClient, p, p.MaxClients)
}

// CanCreateInvoice reports whether a tenant on p that created
// currentMonthInvoices invoices this calendar month may create one more.
func CanCreateInvoice(p plan.Plan, currentMonthInvoices int64) Decision {
	if p.MaxInvoicesPerMonth.IsUnlimited() || currentMonthInvoices < int64(p.MaxInvoicesPerMonth) {
		return allow()
	}
	return deny(ResourceInvoice, p, p.MaxInvoicesPerMonth)
}

// MonthStart returns the first instant of t's calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// UsageReader supplies the counts a limit check needs.
type UsageReader interface {
	CountClients(ctx context.Context, tenantID string) (int64, error)
	// CountInvoicesSince counts invoices by creation timestamp, not invoice date.
	CountInvoicesSince(ctx context.Context, tenantID string, since time.Time) (int64, error)
}

// Usage is the derived usage snapshot of a tenant. It is recomputed on every
// call and never cached.
type Usage struct {
	Clients           int64 `json:"clients"`
	InvoicesThisMonth int64 `json:"invoices_this_month"`
}

// Evaluator reads current usage and applies the plan limits.
type Evaluator struct {
	catalog *plan.Catalog
	usage   UsageReader
	now     func() time.Time
	log     *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source used for the monthly window.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithLogger sets the logger used to record denials.
func WithLogger(log *zap.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

// NewEvaluator creates an Evaluator backed by usage.
func NewEvaluator(catalog *plan.Catalog, usage UsageReader, opts ...Option) *Evaluator {
	e := &Evaluator{
		catalog: catalog,
		usage:   usage,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the plan catalog the evaluator enforces.
func (e *Evaluator) Catalog() *plan.Catalog { return e.catalog }

// CheckClient returns a *LimitExceededError if tenantID may not create
// another client. The count is read immediately before the check; the check
// and the subsequent insert are not atomic.
func (e *Evaluator) CheckClient(ctx context.Context, tenantID, planID string) error {
	p := e.catalog.LimitsFor(planID)
	if p.MaxClients.IsUnlimited() {
		return nil
	}
	n, err := e.usage.CountClients(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("count clients: %w", err)
	}
	return e.verdict(ResourceClient, tenantID, p, p.MaxClients, CanCreateClient(p, n))
}

// CheckInvoice returns a *LimitExceededError if tenantID may not create
// another invoice in the current UTC calendar month.
func (e *Evaluator) CheckInvoice(ctx context.Context, tenantID, planID string) error {
	p := e.catalog.LimitsFor(planID)
	if p.MaxInvoicesPerMonth.IsUnlimited() {
		return nil
	}
	n, err := e.usage.CountInvoicesSince(ctx, tenantID, MonthStart(e.now()))
	if err != nil {
		return fmt.Errorf("count invoices: %w", err)
	}
	return e.verdict(ResourceInvoice, tenantID, p, p.MaxInvoicesPerMonth, CanCreateInvoice(p, n))
}

func (e *Evaluator) verdict(resource, tenantID string, p plan.Plan, limit plan.Limit, d Decision) error {
	if d.Allowed {
		return nil
	}
	metrics.LimitDenialsTotal.WithLabelValues(resource, p.ID).Inc()
	e.log.Info("plan limit reached",
		zap.String("tenant_id", tenantID),
		zap.String("plan", p.ID),
		zap.String("resource", resource),
		zap.Stringer("limit", limit),
	)
	return &LimitExceededError{Resource: resource, Limit: limit, Plan: p.ID}
}

// Usage returns the tenant's current usage snapshot.
func (e *Evaluator) Usage(ctx context.Context, tenantID string) (Usage, error) {
	clients, err := e.usage.CountClients(ctx, tenantID)
	if err != nil {
		return Usage{}, fmt.Errorf("count clients: %w", err)
	}
	invoices, err := e.usage.CountInvoicesSince(ctx, tenantID, MonthStart(e.now()))
	if err != nil {
		return Usage{}, fmt.Errorf("count invoices: %w", err)
	}
	return Usage{Clients: clients, InvoicesThisMonth: invoices}, nil
}
