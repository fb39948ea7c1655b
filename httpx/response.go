// Package httpx holds the JSON helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/diewo77/facturo/gate"
	"github.com/diewo77/facturo/i18n"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/logging"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies read by Decode.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// ErrBadJSON wraps request bodies that cannot be decoded.
var ErrBadJSON = errors.New("invalid JSON body")

// Decode reads a JSON body into dst, rejecting unknown fields. An unknown
// invoice status is reported as a validation error.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, models.ErrInvalidStatus) {
			return validation.Violations{"status": "invalid_status"}.Err()
		}
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return nil
}

// WriteError maps err to a status code and a localized body. Unexpected
// errors are logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	lang := i18n.LangFromContext(r.Context())

	var limitErr *billing.LimitExceededError
	var featureErr *gate.FeatureDeniedError
	var planErr *gate.PlanDeniedError
	var validationErr *validation.Error

	switch {
	case errors.As(err, &validationErr):
		JSONError(w, http.StatusUnprocessableEntity, "validation_failed", validationErr.Localize(lang))
	case errors.Is(err, ErrBadJSON):
		JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
	case errors.As(err, &limitErr):
		JSONError(w, http.StatusForbidden, limitErr.Message(lang), map[string]any{
			"resource": limitErr.Resource,
			"limit":    limitErr.Limit,
			"plan":     limitErr.Plan,
		})
	case errors.As(err, &featureErr):
		JSONError(w, http.StatusForbidden, featureErr.Message(lang), map[string]any{
			"feature": featureErr.Feature,
			"plan":    featureErr.Plan,
		})
	case errors.As(err, &planErr):
		JSONError(w, http.StatusForbidden, planErr.Message(lang), map[string]any{
			"allowed": planErr.Allowed,
			"plan":    planErr.Plan,
		})
	case errors.Is(err, gate.ErrUnauthorized):
		JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, store.ErrNotFound):
		JSONError(w, http.StatusNotFound, i18n.T(lang, "not_found"), nil)
	case errors.Is(err, store.ErrDuplicate):
		JSONError(w, http.StatusConflict, i18n.T(lang, "conflict"), nil)
	case errors.Is(err, store.ErrInUse):
		JSONError(w, http.StatusConflict, i18n.T(lang, "in_use"), nil)
	default:
		logging.FromContext(r.Context(), log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
