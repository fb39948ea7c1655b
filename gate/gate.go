// Package gate enforces plan capabilities for an authenticated subject.
// The Gate asks a Resolver for the subject's entitlements and answers with an
// error describing why access is refused. The package has no dependency on
// domain models; callers supply the resolver.
//
// The package uses generics to allow any subject type:
//   - Gate[string] for a bare tenant id
//   - Gate[auth.Identity] for tenant and plan pairs
package gate

import (
	"context"
	"slices"
)

// Feature names a capability granted by a plan, e.g. "pdf_export".
type Feature string

// Entitlements is what a subject is allowed to use.
type Entitlements interface {
	// ID is the plan identifier the entitlements were derived from.
	ID() string
	HasFeature(f Feature) bool
}

// Resolver maps a subject to its entitlements.
type Resolver[U any] interface {
	Resolve(ctx context.Context, user U) (Entitlements, error)
}

// Gate is the capability checkpoint.
// U is the subject type (must be comparable for zero-value check).
type Gate[U comparable] struct {
	resolver Resolver[U]
}

// NewGate creates a Gate backed by resolver.
func NewGate[U comparable](resolver Resolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

func (g *Gate[U]) entitlements(ctx context.Context, user U) (Entitlements, error) {
	var zero U
	if user == zero {
		return nil, ErrUnauthorized
	}
	ent, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, ErrUnauthorized
	}
	return ent, nil
}

// Enforce returns nil when user may use feature, a *FeatureDeniedError when
// the plan lacks it, and ErrUnauthorized for a zero subject.
func (g *Gate[U]) Enforce(ctx context.Context, user U, feature Feature) error {
	ent, err := g.entitlements(ctx, user)
	if err != nil {
		return err
	}
	if !ent.HasFeature(feature) {
		return &FeatureDeniedError{Feature: feature, Plan: ent.ID()}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, feature Feature) bool {
	return g.Enforce(ctx, user, feature) == nil
}

// RequirePlan allows user only when its plan is one of plans.
func (g *Gate[U]) RequirePlan(ctx context.Context, user U, plans ...string) error {
	ent, err := g.entitlements(ctx, user)
	if err != nil {
		return err
	}
	if !slices.Contains(plans, ent.ID()) {
		return &PlanDeniedError{Allowed: plans, Plan: ent.ID()}
	}
	return nil
}
