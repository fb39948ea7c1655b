package policy

import (
	"context"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/gate"
	"github.com/diewo77/facturo/internal/plan"
)

// PlanResolver resolves an identity to the entitlements of its plan. Unknown
// plan ids get the catalog's fallback plan.
type PlanResolver struct {
	catalog *plan.Catalog
}

func NewPlanResolver(catalog *plan.Catalog) *PlanResolver {
	return &PlanResolver{catalog: catalog}
}

// Resolve implements gate.Resolver.
func (r *PlanResolver) Resolve(_ context.Context, id auth.Identity) (gate.Entitlements, error) {
	if id.TenantID == "" {
		return nil, nil
	}
	return planEntitlements{r.catalog.LimitsFor(id.Plan)}, nil
}

type planEntitlements struct {
	p plan.Plan
}

func (e planEntitlements) ID() string { return e.p.ID }

func (e planEntitlements) HasFeature(f gate.Feature) bool {
	return e.p.HasFeature(plan.Feature(f))
}
