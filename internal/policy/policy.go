// Package policy holds the authorization rules for users and letters.
// Rules are registered on a gate.Gate keyed by resource type; the decisions
// that need more than an allow/deny answer are plain functions.
package policy

import (
	"context"
	"fmt"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/gate"
	"github.com/diewo77/go-deliberations/internal/models"
)

const (
	ResourceUser   = "user"
	ResourceLetter = "letter"
)

// Denials carry gate.ErrForbidden so callers can map them with errors.Is.
var (
	ErrForeignProfile = fmt.Errorf("%w: profile belongs to another user", gate.ErrForbidden)
	ErrRoleChange     = fmt.Errorf("%w: role change requires admin", gate.ErrForbidden)
	ErrLastAdmin      = fmt.Errorf("%w: cannot remove last admin", gate.ErrForbidden)
)

// NewGate returns a gate with the user and letter policies registered.
func NewGate() *gate.Gate[*auth.Actor] {
	g := gate.NewGate[*auth.Actor]()
	g.Register(ResourceUser, UserPolicy{})
	g.Register(ResourceLetter, LetterPolicy{})
	return g
}

// targetID extracts a user id from a policy resource.
func targetID(resource any) (uint, bool) {
	switch v := resource.(type) {
	case uint:
		return v, true
	case *models.User:
		if v == nil {
			return 0, false
		}
		return v.ID, true
	}
	return 0, false
}

// UserPolicy: anyone signed in may list (narrowed later) or view themselves;
// admins create and delete; updates need admin or self.
type UserPolicy struct{}

func (UserPolicy) Can(_ context.Context, a *auth.Actor, action gate.Action, resource any) bool {
	switch action {
	case gate.ActionList:
		return true
	case gate.ActionView, gate.ActionUpdate:
		if a.IsAdmin {
			return true
		}
		id, ok := targetID(resource)
		return ok && id == a.ID
	case gate.ActionCreate, gate.ActionDelete:
		return a.IsAdmin
	}
	return false
}

// LetterPolicy: reads for every signed-in actor, writes for admins.
// Letters are never deleted.
type LetterPolicy struct{}

func (LetterPolicy) Can(_ context.Context, a *auth.Actor, action gate.Action, _ any) bool {
	switch action {
	case gate.ActionList, gate.ActionView:
		return true
	case gate.ActionCreate, gate.ActionUpdate:
		return a.IsAdmin
	}
	return false
}

// EffectiveAdminFlag is the admin flag a new user actually receives:
// only an admin may grant it, anyone else's request is coerced to false.
func EffectiveAdminFlag(a auth.Actor, requested bool) bool {
	return requested && a.IsAdmin
}

// UserListScope returns the only user id a standard actor may see.
// restricted is false for admins, who see everyone.
func UserListScope(a auth.Actor) (id uint, restricted bool) {
	if a.IsAdmin {
		return 0, false
	}
	return a.ID, true
}

// UserUpdate is the outcome of DecideUserUpdate.
type UserUpdate struct {
	Self bool
	// ApplyRole is false when a requested role must be left untouched.
	ApplyRole bool
	// RoleIgnored reports a self role change that was dropped.
	RoleIgnored bool
}

// DecideUserUpdate applies the profile edit rules: admin or self only; a role
// sent for oneself is ignored; a role for someone else needs admin.
func DecideUserUpdate(a auth.Actor, target uint, roleRequested bool) (UserUpdate, error) {
	self := a.ID == target
	if !a.IsAdmin && !self {
		return UserUpdate{}, ErrForeignProfile
	}
	d := UserUpdate{Self: self}
	if !roleRequested {
		return d, nil
	}
	if self {
		d.RoleIgnored = true
		return d, nil
	}
	if !a.IsAdmin {
		return UserUpdate{}, ErrRoleChange
	}
	d.ApplyRole = true
	return d, nil
}

// CheckUserDeletion protects the last admin. adminCount is the number of
// admins before the deletion.
func CheckUserDeletion(a auth.Actor, target *models.User, adminCount int64) error {
	if !a.IsAdmin {
		return gate.ErrForbidden
	}
	if target.IsAdmin && adminCount <= 1 {
		return ErrLastAdmin
	}
	return nil
}
