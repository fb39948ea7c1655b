// Package handlers exposes the JSON API. Every handler expects an
// authenticated identity in the request context.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
)

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// pathID parses the {id} path value. Malformed ids are reported as not
// found, like ids of another tenant.
func pathID(r *http.Request) (uint, error) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, store.ErrNotFound
	}
	return uint(n), nil
}

// queryInt reads an optional non-negative integer parameter.
func queryInt(r *http.Request, name string, v validation.Violations) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		v.Add(name, "out_of_range")
		return 0
	}
	return n
}

// queryBool reads an optional boolean parameter, returning def when absent.
func queryBool(r *http.Request, name string, def bool, v validation.Violations) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		v.Add(name, "out_of_range")
		return def
	}
	return b
}

// page reads skip and limit. limit must be between 1 and store.MaxLimit.
func page(r *http.Request, v validation.Violations) store.Page {
	p := store.Page{Skip: queryInt(r, "skip", v), Limit: queryInt(r, "limit", v)}
	if r.URL.Query().Has("limit") && (p.Limit < 1 || p.Limit > store.MaxLimit) {
		v.Add("limit", "out_of_range")
	}
	return p
}
