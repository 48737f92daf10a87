package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-deliberations/gate"
)

// mockPolicy is a simple policy for testing with uint subjects.
type mockPolicy struct {
	allowAll bool
}

func (p *mockPolicy) Can(_ context.Context, _ uint, _ gate.Action, _ any) bool {
	return p.allowAll
}

func TestGate_Authorize_NoUser(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("test", &mockPolicy{allowAll: true})

	err := g.Authorize(context.Background(), 0, gate.ActionView, "test", nil)
	if !errors.Is(err, gate.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGate_Authorize_NoPolicy(t *testing.T) {
	g := gate.NewGate[uint]()

	err := g.Authorize(context.Background(), 1, gate.ActionView, "unknown", nil)
	if !errors.Is(err, gate.ErrNoPolicyDefined) {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestGate_Authorize_Allowed(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("test", &mockPolicy{allowAll: true})

	if err := g.Authorize(context.Background(), 1, gate.ActionView, "test", nil); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestGate_Authorize_Denied(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("test", &mockPolicy{allowAll: false})

	err := g.Authorize(context.Background(), 1, gate.ActionView, "test", nil)
	if !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestGate_Can(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("test", &mockPolicy{allowAll: true})
	g.Register("denied", &mockPolicy{allowAll: false})

	if !g.Can(context.Background(), 1, gate.ActionCreate, "test", nil) {
		t.Error("expected Can to return true")
	}
	if g.Can(context.Background(), 1, gate.ActionCreate, "denied", nil) {
		t.Error("expected Can to return false")
	}
}

// Test with a pointer subject carrying a role, the way the application uses it.
type testUser struct {
	ID    uint
	Admin bool
}

func TestGate_WithPolicyFunc(t *testing.T) {
	g := gate.NewGate[*testUser]()
	g.Register("resource", gate.PolicyFunc[*testUser](func(_ context.Context, u *testUser, action gate.Action, _ any) bool {
		if u.Admin {
			return true
		}
		return action == gate.ActionView || action == gate.ActionList
	}))

	admin := &testUser{ID: 1, Admin: true}
	regular := &testUser{ID: 2}

	if !g.Can(context.Background(), admin, gate.ActionCreate, "resource", nil) {
		t.Error("admin should be able to create")
	}
	if g.Can(context.Background(), regular, gate.ActionCreate, "resource", nil) {
		t.Error("regular user should not be able to create")
	}
	if !g.Can(context.Background(), regular, gate.ActionView, "resource", nil) {
		t.Error("regular user should be able to view")
	}
	if err := g.Authorize(context.Background(), nil, gate.ActionView, "resource", nil); !errors.Is(err, gate.ErrUnauthenticated) {
		t.Errorf("nil user should be unauthenticated, got %v", err)
	}
}
