package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
)

// AnalyticsHandler serves revenue reports. Routes are expected behind the
// analytics feature gate.
type AnalyticsHandler struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewAnalyticsHandler(st *store.Store, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{store: st, log: log, now: time.Now}
}

// Revenue returns the paid revenue of ?year= (default: current UTC year)
// broken down by month.
func (h *AnalyticsHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	year := h.now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 9999 {
			httpx.WriteError(w, r, h.log, validation.Violations{"year": "out_of_range"}.Err())
			return
		}
		year = n
	}

	months, err := h.store.Revenue(r.Context(), identity(r).TenantID, year)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	total := decimal.Zero
	for _, m := range months {
		total = total.Add(m.Total)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"year":   year,
		"months": months,
		"total":  total,
	})
}
