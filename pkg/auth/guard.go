package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/rbac"
)

// Action is an administrative operation on accounts or links.
type Action string

const (
	ActionSiteRegistration   Action = "site_registration"
	ActionCourseRegistration Action = "course_registration"
	ActionViewLinks          Action = "view_links"
	ActionDeleteUser         Action = "delete_user"
	ActionSuspendUser        Action = "suspend_user"
	ActionUpdateUser         Action = "update_user"
	ActionCopyLink           Action = "copy_link"
	ActionSendLink           Action = "send_link"
)

// permissions maps each action to its site-wide permission and the
// permission that applies when the actor owns the target account.
var permissions = map[Action]struct{ site, child string }{
	ActionSiteRegistration:   {rbac.PermSiteQuickRegistration, ""},
	ActionCourseRegistration: {rbac.PermCourseQuickRegistration, ""},
	ActionViewLinks:          {rbac.PermViewLoginLinks, rbac.PermViewChildLoginLinks},
	ActionDeleteUser:         {rbac.PermUserDelete, rbac.PermChildUserDelete},
	ActionSuspendUser:        {rbac.PermUserSuspend, rbac.PermChildUserSuspend},
	ActionUpdateUser:         {rbac.PermUserUpdate, rbac.PermChildUserUpdate},
	ActionCopyLink:           {rbac.PermUserCopyLink, rbac.PermChildUserCopyLink},
	ActionSendLink:           {rbac.PermUserSendLink, rbac.PermChildUserSendLink},
}

// Authorizer answers role permission checks. *rbac.Authorizer implements it.
type Authorizer interface {
	Can(role, permission string) error
}

// Guard decides whether an actor may perform an admin action.
type Guard struct {
	authz Authorizer
	roles RoleAssigner
}

// NewGuard creates a Guard. roles may be nil, in which case only site roles count.
func NewGuard(authz Authorizer, roles RoleAssigner) *Guard {
	if authz == nil {
		panic("auth: authorizer is required")
	}
	return &Guard{authz: authz, roles: roles}
}

// Check returns nil when actor may perform action on target. The actor's
// site role is tried first; failing that, the role the actor holds on
// target (for example "owner" after a quick registration) is tried with
// the child permission. target may be uuid.Nil for actions without one.
func (g *Guard) Check(ctx context.Context, actor *User, action Action, target uuid.UUID) error {
	perm, ok := permissions[action]
	if !ok || actor == nil || !actor.Available() {
		return ErrForbidden
	}

	if g.authz.Can(actor.Role, perm.site) == nil {
		return nil
	}
	if perm.child == "" || target == uuid.Nil || g.roles == nil {
		return ErrForbidden
	}

	role, held, err := g.roles.OwnerRole(ctx, actor.ID, target)
	if err != nil {
		return errors.Join(ErrForbidden, err)
	}
	if held && g.authz.Can(role, perm.child) == nil {
		return nil
	}
	return ErrForbidden
}

// ViewScope reports whether actor may list links at all, and if so whether
// every link or only those of owned accounts.
func (g *Guard) ViewScope(actor *User) (allowed, all bool) {
	if actor == nil || !actor.Available() {
		return false, false
	}
	if g.authz.Can(actor.Role, rbac.PermViewLoginLinks) == nil {
		return true, true
	}
	// Ownership is per account; VisibleChildren narrows the listing.
	return g.roles != nil, false
}

// VisibleChildren keeps the accounts in children whose links actorID may
// view through the role held on each of them.
func (g *Guard) VisibleChildren(ctx context.Context, actorID uuid.UUID, children []uuid.UUID) ([]uuid.UUID, error) {
	if g.roles == nil {
		return nil, nil
	}
	visible := make([]uuid.UUID, 0, len(children))
	for _, child := range children {
		role, held, err := g.roles.OwnerRole(ctx, actorID, child)
		if err != nil {
			return nil, fmt.Errorf("owner role: %w", err)
		}
		if held && g.authz.Can(role, rbac.PermViewChildLoginLinks) == nil {
			visible = append(visible, child)
		}
	}
	return visible, nil
}
