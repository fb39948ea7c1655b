package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/plan"
)

// BillingHandler reports plans, limits and usage.
type BillingHandler struct {
	limits *billing.Evaluator
	log    *zap.Logger
}

func NewBillingHandler(limits *billing.Evaluator, log *zap.Logger) *BillingHandler {
	return &BillingHandler{limits: limits, log: log}
}

type limitsResponse struct {
	Clients          plan.Limit `json:"clients"`
	InvoicesPerMonth plan.Limit `json:"invoices_per_month"`
}

func limitsOf(p plan.Plan) limitsResponse {
	return limitsResponse{Clients: p.MaxClients, InvoicesPerMonth: p.MaxInvoicesPerMonth}
}

// Plan returns the caller's effective plan. Unknown plan ids resolve to
// the free tier.
func (h *BillingHandler) Plan(w http.ResponseWriter, r *http.Request) {
	p := h.limits.Catalog().LimitsFor(identity(r).Plan)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"plan":     p.ID,
		"name":     p.Name,
		"limits":   limitsOf(p),
		"features": p.Features,
	})
}

// Usage returns the current counts next to the plan limits. It is computed
// on every call.
func (h *BillingHandler) Usage(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	usage, err := h.limits.Usage(r.Context(), id.TenantID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	p := h.limits.Catalog().LimitsFor(id.Plan)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"plan":   p.ID,
		"usage":  usage,
		"limits": limitsOf(p),
	})
}

// Plans lists every plan with its price, limits and features.
func (h *BillingHandler) Plans(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"plans": h.limits.Catalog().Plans()})
}
