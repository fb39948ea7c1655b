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

type ClientHandler struct {
	clients *services.ClientService
	store   *store.Store
	log     *zap.Logger
}

func NewClientHandler(clients *services.ClientService, st *store.Store, log *zap.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, store: st, log: log}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	v := validation.Violations{}
	p := page(r, v)
	if err := v.Err(); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	clients, err := h.store.ListClients(r.Context(), identity(r).TenantID, p)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	httpx.JSON(w, http.StatusOK, clients)
}

// Create answers 403 once the plan's client limit is reached.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if err := httpx.Decode(r, &c); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.clients.Create(r.Context(), identity(r), &c); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	c, err := h.store.GetClient(r.Context(), identity(r).TenantID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	tenantID := identity(r).TenantID
	// fields absent from the body keep their stored value
	in, err := h.store.GetClient(r.Context(), tenantID, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := httpx.Decode(r, in); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	c, err := h.clients.Update(r.Context(), tenantID, id, *in)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete answers 409 while invoices reference the client.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if err := h.store.DeleteClient(r.Context(), identity(r).TenantID, id); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
