package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/services"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
)

type ProductHandler struct {
	products *services.ProductService
	store    *store.Store
	log      *zap.Logger
}

func NewProductHandler(products *services.ProductService, st *store.Store, log *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, store: st, log: log}
}

// List returns active products unless active_only=false.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	v := validation.Violations{}
	p := page(r, v)
	activeOnly := queryBool(r, "active_only", true, v)
	if err := v.Err(); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	products, err := h.store.ListProducts(r.Context(), identity(r).TenantID, activeOnly, p)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	// new products are active unless the body says otherwise
	p := models.Product{Active: true}
	if err := httpx.Decode(r, &p); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.products.Create(r.Context(), identity(r).TenantID, &p); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	p, err := h.store.GetProduct(r.Context(), identity(r).TenantID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	tenantID := identity(r).TenantID
	// fields absent from the body keep their stored value
	in, err := h.store.GetProduct(r.Context(), tenantID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := httpx.Decode(r, in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	p, err := h.products.Update(r.Context(), tenantID, id, *in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Delete answers 409 while invoice lines reference the product.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.store.DeleteProduct(r.Context(), identity(r).TenantID, id); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
