package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/facturo/gate"
)

func newGate() *gate.Gate[string] {
	r := gate.NewStaticResolver[string]()
	r.Set("user_free", gate.NewStaticEntitlements("free_user"))
	r.Set("user_starter", gate.NewStaticEntitlements("starter", "pdf_export"))
	r.Set("user_pro", gate.NewStaticEntitlements("pro", "pdf_export", "analytics", "custom_templates"))
	return gate.NewGate[string](r)
}

func TestGate_Enforce_NoUser(t *testing.T) {
	err := newGate().Enforce(context.Background(), "", "pdf_export")
	if err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Enforce_UnknownSubject(t *testing.T) {
	err := newGate().Enforce(context.Background(), "user_ghost", "pdf_export")
	if err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Enforce(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	if err := g.Enforce(ctx, "user_starter", "pdf_export"); err != nil {
		t.Errorf("starter should export PDFs, got %v", err)
	}

	err := g.Enforce(ctx, "user_free", "pdf_export")
	var denied *gate.FeatureDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected FeatureDeniedError, got %v", err)
	}
	if denied.Feature != "pdf_export" || denied.Plan != "free_user" {
		t.Errorf("unexpected denial %+v", denied)
	}
	want := "This feature requires 'pdf_export', which is not available on your free_user plan. Upgrade your plan to access it."
	if err.Error() != want {
		t.Errorf("got %q", err.Error())
	}
}

func TestGate_Can(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	if !g.Can(ctx, "user_pro", "analytics") {
		t.Error("pro should have analytics")
	}
	if g.Can(ctx, "user_starter", "analytics") {
		t.Error("starter should not have analytics")
	}
}

func TestGate_RequirePlan(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	if err := g.RequirePlan(ctx, "user_pro", "starter", "pro"); err != nil {
		t.Errorf("pro is allowed, got %v", err)
	}

	err := g.RequirePlan(ctx, "user_free", "starter", "pro")
	var denied *gate.PlanDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected PlanDeniedError, got %v", err)
	}
	if denied.Plan != "free_user" {
		t.Errorf("got plan %q", denied.Plan)
	}
	want := "Esta función requiere uno de los siguientes planes: starter, pro. Tu plan actual es: free_user"
	if got := denied.Message("es"); got != want {
		t.Errorf("got %q", got)
	}
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, string) (gate.Entitlements, error) {
	return nil, f.err
}

func TestGate_ResolverError(t *testing.T) {
	boom := errors.New("lookup failed")
	g := gate.NewGate[string](failingResolver{err: boom})

	if err := g.Enforce(context.Background(), "user_1", "pdf_export"); !errors.Is(err, boom) {
		t.Errorf("expected resolver error, got %v", err)
	}
	if err := g.RequirePlan(context.Background(), "user_1", "pro"); !errors.Is(err, boom) {
		t.Errorf("expected resolver error, got %v", err)
	}
}

// Subjects can be structs as long as they are comparable.
type identity struct {
	Tenant string
	Plan   string
}

type planResolver struct{}

func (planResolver) Resolve(_ context.Context, id identity) (gate.Entitlements, error) {
	if id.Plan == "pro" {
		return gate.NewStaticEntitlements("pro", "pdf_export"), nil
	}
	return gate.NewStaticEntitlements("free_user"), nil
}

func TestGate_WithStructSubject(t *testing.T) {
	g := gate.NewGate[identity](planResolver{})
	ctx := context.Background()

	if !g.Can(ctx, identity{"user_1", "pro"}, "pdf_export") {
		t.Error("pro identity should export")
	}
	if g.Can(ctx, identity{"user_2", "free_user"}, "pdf_export") {
		t.Error("free identity should not export")
	}
	if err := g.Enforce(ctx, identity{}, "pdf_export"); err != gate.ErrUnauthorized {
		t.Errorf("zero identity should be unauthorized, got %v", err)
	}
}
