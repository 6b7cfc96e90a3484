package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperAdminBypassesEverything(t *testing.T) {
	admin := &User{ID: "9", RoleID: RoleSuperAdmin}
	for _, perm := range AllPermissions() {
		assert.True(t, HasPermission(admin, perm, nil), "superadmin denied %s with nil roles", perm)
		assert.True(t, HasPermission(admin, perm, []Role{}), "superadmin denied %s with empty roles", perm)
	}

	// Even an explicitly empty hydrated list must not defeat the override.
	admin.Permissions = []Permission{}
	assert.True(t, HasPermission(admin, PermPayinDelete, nil))
}

func TestNilUserDenied(t *testing.T) {
	assert.False(t, HasPermission(nil, PermPayinAdd, DefaultRoles()))
}

func TestUnknownRoleDenied(t *testing.T) {
	u := &User{ID: "u1", RoleID: "no-such-role"}
	for _, perm := range AllPermissions() {
		assert.False(t, HasPermission(u, perm, DefaultRoles()), "unexpected grant of %s", perm)
	}
}

func TestHydratedPermissionsShortCircuitRoleLookup(t *testing.T) {
	// The hydrated list says payin_add only; the role collection disagrees
	// and grants payin_delete as well. The hydrated list wins.
	roles := []Role{{ID: "manager", Name: "Manager", Permissions: []Permission{PermPayinAdd, PermPayinDelete}}}
	u := &User{ID: "u1", RoleID: "manager", Permissions: []Permission{PermPayinAdd}}

	assert.True(t, HasPermission(u, PermPayinAdd, roles))
	assert.False(t, HasPermission(u, PermPayinDelete, roles))
}

func TestRoleLookupScenario(t *testing.T) {
	r1 := Role{ID: "manager", Name: "Manager", Permissions: []Permission{PermPayinAdd, PermPayinEdit}}
	u1 := &User{ID: "u1", RoleID: "manager"}

	assert.True(t, HasPermission(u1, PermPayinAdd, []Role{r1}))
	assert.False(t, HasPermission(u1, PermPayinDelete, []Role{r1}))
}

func TestGuestScenario(t *testing.T) {
	guestRole := Role{ID: RoleGuest, Name: "Guest", Permissions: []Permission{PermViewAnalytics}}
	g := Guest()

	assert.True(t, HasPermission(g, PermViewAnalytics, []Role{guestRole}))
	assert.False(t, HasPermission(g, PermPayinAdd, []Role{guestRole}))
}

func TestCanEditUserSelfAlwaysAllowed(t *testing.T) {
	// No user_edit anywhere, still allowed to edit self.
	u := &User{ID: "u7", RoleID: RoleGuest}
	assert.True(t, CanEditUser(u, "u7", DefaultRoles()))
	assert.False(t, CanEditUser(u, "someone-else", DefaultRoles()))
}

func TestCanEditUserSuperAdminEditsAnyone(t *testing.T) {
	admin := &User{ID: "1", RoleID: RoleSuperAdmin}
	assert.True(t, CanEditUser(admin, "u42", nil))
}

func TestCanDeleteUserNeverSelf(t *testing.T) {
	roles := []Role{{ID: "ops", Permissions: []Permission{PermUserDelete}}}
	u := &User{ID: "u3", RoleID: "ops"}

	assert.True(t, CanDeleteUser(u, "u4", roles))
	assert.False(t, CanDeleteUser(u, "u3", roles), "self-deletion must be denied even with user_delete")
}

func TestCanDeleteUserRequiresPermission(t *testing.T) {
	u := &User{ID: "u3", RoleID: "user"}
	assert.False(t, CanDeleteUser(u, "u4", DefaultRoles()))
	assert.False(t, CanDeleteUser(nil, "u4", DefaultRoles()))
}

func TestDefaultRolesShape(t *testing.T) {
	roles := DefaultRoles()
	require.Len(t, roles, 5)

	byID := make(map[string]Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	require.Contains(t, byID, RoleSuperAdmin)
	require.Contains(t, byID, RoleGuest)

	assert.ElementsMatch(t, AllPermissions(), byID[RoleSuperAdmin].Permissions)
	assert.Equal(t, []Permission{PermViewAnalytics}, byID[RoleGuest].Permissions)

	for _, r := range roles {
		for _, p := range r.Permissions {
			assert.True(t, IsKnownPermission(p), "role %s references unknown permission %s", r.ID, p)
		}
	}
}

func TestSanitizeStripsCredential(t *testing.T) {
	u := User{ID: "1", Username: "admin", PasswordHash: "$2a$10$abc"}
	assert.Empty(t, u.Sanitize().PasswordHash)
	assert.Equal(t, "$2a$10$abc", u.PasswordHash, "Sanitize must not mutate the receiver")
}
