package rbac

// Capabilities checked by the magic link admin surface. The child variants
// apply when the actor holds an owner role on the target account.
const (
	PermSiteQuickRegistration   = "magic.site_quick_registration"
	PermCourseQuickRegistration = "magic.course_quick_registration"
	PermViewLoginLinks          = "magic.view_login_links"
	PermViewChildLoginLinks     = "magic.view_child_login_links"

	PermUserDelete   = "magic.user_delete"
	PermUserSuspend  = "magic.user_suspend"
	PermUserUpdate   = "magic.user_update"
	PermUserCopyLink = "magic.user_copy_link"
	PermUserSendLink = "magic.user_send_link"

	PermChildUserDelete   = "magic.child_user_delete"
	PermChildUserSuspend  = "magic.child_user_suspend"
	PermChildUserUpdate   = "magic.child_user_update"
	PermChildUserCopyLink = "magic.child_user_copy_link"
	PermChildUserSendLink = "magic.child_user_send_link"
)

// Built-in role names.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
	RoleOwner   = "owner"
)

// DefaultRoles is the role set used when no roles file is configured.
// "owner" is not a site role: it is held on individual accounts.
func DefaultRoles() map[string]Role {
	return map[string]Role{
		RoleUser: {},
		RoleOwner: {
			Permissions: []string{
				PermViewChildLoginLinks,
				PermChildUserDelete,
				PermChildUserSuspend,
				PermChildUserUpdate,
				PermChildUserCopyLink,
				PermChildUserSendLink,
			},
		},
		RoleManager: {
			Permissions: []string{PermSiteQuickRegistration, PermCourseQuickRegistration},
			Inherits:    []string{RoleUser},
		},
		RoleAdmin: {
			Permissions: []string{"magic.*"},
			Inherits:    []string{RoleManager},
		},
	}
}
