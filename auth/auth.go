// Package auth resolves the tenant identity of a request from a signed token.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/diewo77/facturo/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	identityCtxKey    = ctxKey("identity")

	// DefaultPlan is assumed when a token carries no plan.
	DefaultPlan = "free_user"
	devSecret   = "devsessionsecret"
)

// Identity is an authenticated tenant together with its subscription plan.
type Identity struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
}

// Authenticator signs and verifies identity tokens.
type Authenticator struct {
	secret []byte
}

// New returns an Authenticator using secret, or a development secret when
// secret is empty.
func New(secret string) *Authenticator {
	if secret == "" {
		secret = devSecret
	}
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IssueToken mints a token for id.
func (a *Authenticator) IssueToken(id Identity) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(id.TenantID)) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(id.Plan))
	return payload + "." + a.sign(payload)
}

// ParseToken validates token and returns the identity it carries.
func (a *Authenticator) ParseToken(token string) (Identity, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Identity{}, false
	}
	expected := a.sign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return Identity{}, false
	}
	tenant, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(tenant) == 0 {
		return Identity{}, false
	}
	plan, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Identity{}, false
	}
	id := Identity{TenantID: string(tenant), Plan: string(plan)}
	if id.Plan == "" {
		id.Plan = DefaultPlan
	}
	return id, true
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetSession stores token in the session cookie.
func SetSession(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// WithIdentity stores id in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromContext extracts the identity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok && id.TenantID != ""
}

// Middleware attaches the identity to the request context if a valid token
// is present in the Authorization header or the session cookie.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromRequest(r); token != "" {
			if id, ok := a.ParseToken(token); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth returns 401 JSON when the request carries no identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
