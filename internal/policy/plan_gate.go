// Package policy wires the plan catalog into the capability gate and exposes
// it as HTTP middleware.
package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/gate"
	"github.com/diewo77/facturo/httpx"
	"github.com/diewo77/facturo/internal/metrics"
	"github.com/diewo77/facturo/internal/plan"
	"go.uber.org/zap"
)

// PlanGate checks the plan of the identity carried by the request context.
type PlanGate struct {
	Gate *gate.Gate[auth.Identity]
	log  *zap.Logger
}

// NewPlanGate creates a gate backed by catalog.
func NewPlanGate(catalog *plan.Catalog, log *zap.Logger) *PlanGate {
	if log == nil {
		log = zap.NewNop()
	}
	return &PlanGate{
		Gate: gate.NewGate[auth.Identity](NewPlanResolver(catalog)),
		log:  log,
	}
}

// Enforce checks that the current identity's plan has feature.
func (pg *PlanGate) Enforce(ctx context.Context, feature plan.Feature) error {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	err := pg.Gate.Enforce(ctx, id, gate.Feature(feature))
	var denied *gate.FeatureDeniedError
	if errors.As(err, &denied) {
		metrics.FeatureDenialsTotal.WithLabelValues(string(feature), denied.Plan).Inc()
		pg.log.Info("feature denied",
			zap.String("tenant_id", id.TenantID),
			zap.String("feature", string(feature)),
			zap.String("plan", denied.Plan),
		)
	}
	return err
}

// RequireFeature returns middleware that blocks requests whose plan lacks
// feature.
func (pg *PlanGate) RequireFeature(feature plan.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := pg.Enforce(r.Context(), feature); err != nil {
				httpx.WriteError(w, r, pg.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
