package rbac

// MaxInheritanceDepth bounds role inheritance chains.
const MaxInheritanceDepth = 10

// Role is a set of permissions plus the roles it inherits from.
// Permissions are dotted names; "magic.*" grants everything under "magic."
// and "*" grants everything.
type Role struct {
	Permissions []string `yaml:"permissions"`
	Inherits    []string `yaml:"inherits"`
}
