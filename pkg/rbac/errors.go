package rbac

import "errors"

var (
	ErrInvalidRole             = errors.New("rbac.invalid_role")
	ErrInsufficientPermissions = errors.New("rbac.insufficient_permissions")
	ErrCircularInheritance     = errors.New("rbac.circular_inheritance")
	ErrInvalidRoleFile         = errors.New("rbac.invalid_role_file")
)
