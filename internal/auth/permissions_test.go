package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, PermSwitchRead, true},
		{RoleViewer, PermMirrorRead, true},
		{RoleViewer, PermSwitchOperate, false},
		{RoleOperator, PermSwitchRead, true},
		{RoleOperator, PermSwitchOperate, true},
		{RoleOperator, PermMirrorRead, true},
		{Role("nonexistent"), PermSwitchRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleOperator)
	if len(perms) == 0 {
		t.Fatal("PermissionsForRole(operator) should return permissions")
	}

	perms[0] = "modified"
	if PermissionsForRole(RoleOperator)[0] == "modified" {
		t.Error("PermissionsForRole should return a copy, not the original")
	}

	if got := PermissionsForRole(Role("unknown")); got != nil {
		t.Errorf("PermissionsForRole(unknown) = %v, want nil", got)
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleViewer) || !IsValidRole(RoleOperator) {
		t.Error("viewer and operator should be valid roles")
	}
	if IsValidRole(Role("admin")) {
		t.Error("admin should NOT be a valid role")
	}
}
