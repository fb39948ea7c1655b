package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/i18n"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/pdf"
	"github.com/diewo77/facturo/internal/plan"
	"github.com/diewo77/facturo/internal/services"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
)

// FeatureEnforcer checks a plan feature for the identity in ctx.
type FeatureEnforcer interface {
	Enforce(ctx context.Context, feature plan.Feature) error
}

type InvoiceHandler struct {
	invoices *services.InvoiceService
	renderer *pdf.Renderer
	features FeatureEnforcer
	log      *zap.Logger
}

func NewInvoiceHandler(invoices *services.InvoiceService, renderer *pdf.Renderer, features FeatureEnforcer, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, renderer: renderer, features: features, log: log}
}

func invoiceFilter(r *http.Request) (store.InvoiceFilter, error) {
	v := validation.Violations{}
	q := r.URL.Query()
	f := store.InvoiceFilter{Page: page(r, v)}

	if raw := q.Get("status"); raw != "" {
		st, err := models.ParseInvoiceStatus(raw)
		if err != nil {
			v.Add("status", "invalid_status")
		}
		f.Status = st
	}
	if raw := q.Get("client_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			v.Add("client_id", "out_of_range")
		}
		f.ClientID = uint(n)
	}
	if q.Has("from") {
		from := validation.Date("from", q.Get("from"), v)
		f.From = &from
	}
	if q.Has("to") {
		to := validation.Date("to", q.Get("to"), v)
		f.To = &to
	}
	return f, v.Err()
}

// List returns invoice summaries, newest first. Filters: status, client_id,
// from, to (inclusive dates), skip and limit.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := invoiceFilter(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	list, err := h.invoices.List(r.Context(), identity(r).TenantID, f)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []store.InvoiceSummary{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Create answers 403 once the monthly invoice limit of the plan is reached.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInvoiceInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	inv, err := h.invoices.Create(r.Context(), identity(r), in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	inv, err := h.invoices.Get(r.Context(), identity(r).TenantID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	var in services.UpdateInvoiceInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	inv, err := h.invoices.Update(r.Context(), identity(r).TenantID, id, in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.invoices.Delete(r.Context(), identity(r).TenantID, id); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PDF renders the invoice in the request language. The route is gated on
// the pdf_export feature; any ?template= other than base also needs
// custom_templates.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	tpl, err := pdf.ParseTemplate(r.URL.Query().Get("template"))
	if err != nil {
		httpx.WriteError(w, r, h.log, validation.Violations{"template": "invalid_template"}.Err())
		return
	}
	if tpl != pdf.TemplateBase {
		if err := h.features.Enforce(r.Context(), plan.FeatureCustomTemplates); err != nil {
			httpx.WriteError(w, r, h.log, err)
			return
		}
	}
	doc, err := h.invoices.Document(r.Context(), identity(r).TenantID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	doc.Lang = i18n.LangFromContext(r.Context())
	doc.Template = tpl
	out, err := h.renderer.Invoice(doc)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "invoice-"+doc.Invoice.Number+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
