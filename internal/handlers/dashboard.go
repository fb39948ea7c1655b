package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/store"
)

type DashboardHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewDashboardHandler(st *store.Store, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{store: st, log: log}
}

// Stats returns the client, product and invoice counts of the caller.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	stats, err := h.store.Stats(r.Context(), id.TenantID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"clients":  stats.Clients,
		"products": stats.Products,
		"invoices": stats.Invoices,
		"user_id":  id.TenantID,
	})
}
