package auth

import "slices"

// Permission represents a named capability in the API.
type Permission string

// Permission constants.
const (
	PermSwitchRead    Permission = "switch:read"
	PermSwitchOperate Permission = "switch:operate"
	PermMirrorRead    Permission = "mirror:read"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermSwitchRead,
		PermMirrorRead,
	},
	RoleOperator: {
		PermSwitchRead,
		PermSwitchOperate,
		PermMirrorRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns a copy of the permissions granted to a role,
// or nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
