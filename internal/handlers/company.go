package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/services"
)

// CompanyHandler serves the tenant's single company profile.
type CompanyHandler struct {
	company *services.CompanyService
	log     *zap.Logger
}

func NewCompanyHandler(company *services.CompanyService, log *zap.Logger) *CompanyHandler {
	return &CompanyHandler{company: company, log: log}
}

func (h *CompanyHandler) View(w http.ResponseWriter, r *http.Request) {
	p, err := h.company.Get(r.Context(), identity(r).TenantID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Create answers 409 when the tenant already has a profile.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.CompanyProfile
	if err := httpx.Decode(r, &p); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.company.Create(r.Context(), identity(r).TenantID, &p); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.CompanyProfile
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	p, err := h.company.Update(r.Context(), identity(r).TenantID, in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.company.Delete(r.Context(), identity(r).TenantID); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
