package rbac

import (
	"context"
	"errors"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// RoleSource provides role definitions.
type RoleSource interface {
	Load(ctx context.Context) (map[string]Role, error)
}

type memorySource struct {
	roles map[string]Role
}

// NewInMemRoleSource serves a copy of roles.
func NewInMemRoleSource(roles map[string]Role) RoleSource {
	c := make(map[string]Role, len(roles))
	for name, r := range roles {
		c[name] = Role{Permissions: slices.Clone(r.Permissions), Inherits: slices.Clone(r.Inherits)}
	}
	return &memorySource{roles: c}
}

func (s *memorySource) Load(context.Context) (map[string]Role, error) {
	return maps.Clone(s.roles), nil
}

// ParseRoles reads a YAML document of the form:
//
//	admin:
//	  permissions: ["magic.*"]
//	  inherits: [manager]
func ParseRoles(raw []byte) (map[string]Role, error) {
	var roles map[string]Role
	if err := yaml.Unmarshal(raw, &roles); err != nil {
		return nil, errors.Join(ErrInvalidRoleFile, err)
	}
	if len(roles) == 0 {
		return nil, ErrInvalidRoleFile
	}
	return roles, nil
}

// NewFileRoleSource loads roles from a YAML file on every Load.
func NewFileRoleSource(path string) RoleSource {
	return fileSource(path)
}

type fileSource string

func (p fileSource) Load(context.Context) (map[string]Role, error) {
	raw, err := os.ReadFile(string(p))
	if err != nil {
		return nil, errors.Join(ErrInvalidRoleFile, err)
	}
	return ParseRoles(raw)
}
