package rbac

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// Authorizer answers permission checks against a fixed role set. All
// inherited permissions are resolved up front, so checks never walk the
// inheritance graph.
type Authorizer struct {
	permissions map[string][]string
	depth       map[string]int
}

// NewAuthorizer loads roles from source and resolves inheritance. It fails
// on unknown parents, cycles, or chains deeper than MaxInheritanceDepth.
func NewAuthorizer(ctx context.Context, source RoleSource) (*Authorizer, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := &Authorizer{
		permissions: make(map[string][]string, len(roles)),
		depth:       make(map[string]int, len(roles)),
	}
	for name := range roles {
		if _, err := a.resolve(name, roles, nil); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// resolve fills permissions and depth for name; path is the chain being resolved.
func (a *Authorizer) resolve(name string, roles map[string]Role, path []string) ([]string, error) {
	if perms, ok := a.permissions[name]; ok {
		return perms, nil
	}
	if slices.Contains(path, name) {
		return nil, fmt.Errorf("%w: %v -> %s", ErrCircularInheritance, path, name)
	}
	if len(path) > MaxInheritanceDepth {
		return nil, fmt.Errorf("%w: inheritance deeper than %d", ErrCircularInheritance, MaxInheritanceDepth)
	}

	role, ok := roles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, name)
	}

	perms := slices.Clone(role.Permissions)
	depth := 0
	for _, parent := range role.Inherits {
		inherited, err := a.resolve(parent, roles, append(path, name))
		if err != nil {
			return nil, err
		}
		perms = append(perms, inherited...)
		depth = max(depth, a.depth[parent]+1)
	}
	if depth > MaxInheritanceDepth {
		return nil, fmt.Errorf("%w: inheritance deeper than %d", ErrCircularInheritance, MaxInheritanceDepth)
	}

	slices.Sort(perms)
	perms = slices.Compact(perms)
	a.permissions[name] = perms
	a.depth[name] = depth
	return perms, nil
}

// Can returns nil if role holds permission, directly or by inheritance.
func (a *Authorizer) Can(role, permission string) error {
	perms, ok := a.permissions[role]
	if !ok {
		return ErrInvalidRole
	}
	if !hasPermission(perms, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

// CanAny returns nil if role holds at least one of permissions.
func (a *Authorizer) CanAny(role string, permissions ...string) error {
	if len(permissions) == 0 {
		return nil
	}
	perms, ok := a.permissions[role]
	if !ok {
		return ErrInvalidRole
	}
	for _, p := range permissions {
		if hasPermission(perms, p) {
			return nil
		}
	}
	return ErrInsufficientPermissions
}

func (a *Authorizer) VerifyRole(role string) error {
	if _, ok := a.permissions[role]; !ok {
		return ErrInvalidRole
	}
	return nil
}

// Roles lists role names, base roles first.
func (a *Authorizer) Roles() []string {
	names := make([]string, 0, len(a.permissions))
	for name := range a.permissions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if a.depth[names[i]] != a.depth[names[j]] {
			return a.depth[names[i]] < a.depth[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
