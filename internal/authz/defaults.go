package authz

// DefaultRoles returns the role set seeded when the role collection is
// empty. The superadmin role stores the full catalog even though the engine
// grants it everything regardless; the stored set is what role editors see.
func DefaultRoles() []Role {
	return []Role{
		{
			ID:          RoleSuperAdmin,
			Name:        "Super Admin",
			Permissions: AllPermissions(),
		},
		{
			ID:   "admin",
			Name: "Admin",
			Permissions: []Permission{
				PermPayinAdd, PermPayinEdit, PermPayinDelete,
				PermUserEdit,
				PermReferrorAdd, PermReferrorEdit, PermReferrorDelete,
				PermMentorAdd, PermMentorEdit, PermMentorDelete,
				PermViewAnalytics, PermViewAudit,
			},
		},
		{
			ID:   "manager",
			Name: "Manager",
			Permissions: []Permission{
				PermPayinAdd, PermPayinEdit,
				PermReferrorAdd, PermReferrorEdit,
				PermMentorAdd, PermMentorEdit,
				PermViewAnalytics,
			},
		},
		{
			ID:   "user",
			Name: "User",
			Permissions: []Permission{
				PermPayinAdd, PermPayinEdit,
				PermViewAnalytics,
			},
		},
		{
			ID:          RoleGuest,
			Name:        "Guest",
			Permissions: []Permission{PermViewAnalytics},
		},
	}
}

// DefaultUsers returns the accounts seeded when the user collection is
// empty: the single protected super-admin. The password hash is filled in by
// the seeding layer from configuration.
func DefaultUsers() []User {
	return []User{
		{
			ID:        ProtectedUserID,
			Username:  "admin",
			Name:      "Super Admin",
			RoleID:    RoleSuperAdmin,
			Protected: true,
		},
	}
}
