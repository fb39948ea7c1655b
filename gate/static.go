package gate

import "context"

// StaticEntitlements is a simple in-memory entitlement set.
// Useful for testing or static configuration.
type StaticEntitlements struct {
	id       string
	features map[Feature]bool
}

// NewStaticEntitlements creates entitlements for plan id with features.
func NewStaticEntitlements(id string, features ...Feature) *StaticEntitlements {
	e := &StaticEntitlements{id: id, features: make(map[Feature]bool)}
	for _, f := range features {
		e.features[f] = true
	}
	return e
}

func (e *StaticEntitlements) ID() string                { return e.id }
func (e *StaticEntitlements) HasFeature(f Feature) bool { return e.features[f] }

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	entitlements map[U]Entitlements
}

// NewStaticResolver creates a resolver with no assignments.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{entitlements: make(map[U]Entitlements)}
}

// Set assigns entitlements to a subject.
func (r *StaticResolver[U]) Set(user U, e Entitlements) {
	r.entitlements[user] = e
}

// Resolve returns the entitlements for user, or nil when none were set.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Entitlements, error) {
	if e, ok := r.entitlements[user]; ok {
		return e, nil
	}
	return nil, nil
}
