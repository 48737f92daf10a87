// Package gate provides a small Gate/Policy authorization registry.
// The Gate maps resource type names to policies; each Policy decides whether
// a subject may perform an action on a resource of that type. The package has
// no dependency on domain models.
//
// The subject type is generic:
//   - Gate[uint] for id based checks
//   - Gate[*Actor] for checks that need the subject's role
package gate

import "context"

// Gate is the central authorization checkpoint.
// U must be comparable so a zero-value subject can be rejected as unauthenticated.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a resource type (e.g. "letter").
// Overwrites any existing policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil when the action is allowed.
// ErrUnauthenticated is returned for a zero-value subject, ErrNoPolicyDefined
// for an unknown resource type and ErrForbidden when the policy denies.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action, resource) {
		return ErrForbidden
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
