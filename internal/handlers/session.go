package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/plan"
)

// SessionHandler exchanges a signed token for a session cookie. Tokens are
// minted by the identity provider in front of the API, or by the server's
// -issue-token flag in development.
type SessionHandler struct {
	auth    *auth.Authenticator
	catalog *plan.Catalog
	secure  bool
	log     *zap.Logger
}

func NewSessionHandler(a *auth.Authenticator, catalog *plan.Catalog, secureCookies bool, log *zap.Logger) *SessionHandler {
	return &SessionHandler{auth: a, catalog: catalog, secure: secureCookies, log: log}
}

type sessionResponse struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
	// Effective is the plan whose limits apply; unknown plans resolve to
	// the free tier.
	Effective string `json:"effective_plan"`
}

func (h *SessionHandler) response(id auth.Identity) sessionResponse {
	return sessionResponse{TenantID: id.TenantID, Plan: id.Plan, Effective: h.catalog.LimitsFor(id.Plan).ID}
}

// Login validates the posted token and stores it in the session cookie.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	id, ok := h.auth.ParseToken(body.Token)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	auth.SetSession(w, body.Token, h.secure)
	httpx.JSON(w, http.StatusOK, h.response(id))
}

// Me returns the identity of the current request.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.response(identity(r)))
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
