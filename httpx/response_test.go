package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/facturo/gate"
	"github.com/diewo77/facturo/i18n"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/plan"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())

	rec = httptest.NewRecorder()
	JSON(rec, http.StatusOK, nil)
	assert.Equal(t, "null", rec.Body.String())
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ACME"}`))
	require.NoError(t, Decode(r, &dst))
	assert.Equal(t, "ACME", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nombre":"ACME"}`))
	assert.ErrorIs(t, Decode(r, &dst), ErrBadJSON)
}

func TestDecode_UnknownStatus(t *testing.T) {
	var dst struct {
		Status models.InvoiceStatus `json:"status"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"archived"}`))

	err := Decode(r, &dst)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_status", verr.Violations["status"])
}

func TestWriteError(t *testing.T) {
	violations := validation.Violations{"name": "required"}

	tests := []struct {
		name   string
		err    error
		lang   string
		status int
		msg    string
	}{
		{"validation", violations.Err(), "en", http.StatusUnprocessableEntity, "validation_failed"},
		{"bad json", fmt.Errorf("%w: eof", ErrBadJSON), "en", http.StatusBadRequest, "invalid_json"},
		{"limit", fmt.Errorf("create client: %w", &billing.LimitExceededError{Resource: billing.ResourceClient, Limit: 5, Plan: plan.Free}), "en", http.StatusForbidden, "You have reached the limit of 5 clients on your free_user plan. Upgrade your plan to add more clients."},
		{"limit es", &billing.LimitExceededError{Resource: billing.ResourceInvoice, Limit: 10, Plan: plan.Free}, "es", http.StatusForbidden, "Has alcanzado el límite de 10 facturas este mes en tu plan free_user. Actualiza tu plan para crear más facturas."},
		{"feature", &gate.FeatureDeniedError{Feature: "pdf_export", Plan: plan.Free}, "en", http.StatusForbidden, "This feature requires 'pdf_export', which is not available on your free_user plan. Upgrade your plan to access it."},
		{"plan", &gate.PlanDeniedError{Allowed: []string{"pro"}, Plan: plan.Starter}, "en", http.StatusForbidden, "This feature requires one of the following plans: pro. Your current plan is: starter"},
		{"unauthorized", gate.ErrUnauthorized, "en", http.StatusUnauthorized, "unauthorized"},
		{"not found", fmt.Errorf("get invoice: %w", store.ErrNotFound), "es", http.StatusNotFound, "No encontrado"},
		{"duplicate", store.ErrDuplicate, "en", http.StatusConflict, "Already exists"},
		{"in use", store.ErrInUse, "en", http.StatusConflict, "Still referenced by other records"},
		{"unexpected", errors.New("connection reset"), "en", http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(i18n.WithLang(r.Context(), tt.lang))
			rec := httptest.NewRecorder()

			WriteError(rec, r, zap.NewNop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error)
		})
	}
}

func TestWriteError_ValidationDetails(t *testing.T) {
	v := validation.Violations{"lines[0].quantity": "must_be_positive"}
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, r, nil, v.Err())

	assert.JSONEq(t, `{"error":"validation_failed","details":{"lines[0].quantity":"Must be greater than zero"}}`, rec.Body.String())
}
