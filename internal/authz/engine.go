package authz

// HasPermission reports whether user may exercise perm. The precedence order
// is total and the first match wins:
//
//  1. nil user denies everything.
//  2. the superadmin role grants everything, even with an explicitly empty
//     hydrated permission list and an empty role collection.
//  3. a hydrated Permissions slice, when present, is authoritative; the
//     role collection is not consulted on this path.
//  4. otherwise the user's role is looked up in roles; an unknown role
//     denies.
//
// Absence of data always resolves to a denial. The function is pure and
// performs no I/O.
func HasPermission(user *User, perm Permission, roles []Role) bool {
	if user == nil {
		return false
	}
	if user.RoleID == RoleSuperAdmin {
		return true
	}
	if user.Permissions != nil {
		for _, granted := range user.Permissions {
			if granted == perm {
				return true
			}
		}
		return false
	}
	for _, role := range roles {
		if role.ID == user.RoleID {
			return role.HasPermission(perm)
		}
	}
	return false
}

// IsSuperAdmin reports whether the user holds the superadmin role.
func IsSuperAdmin(user *User) bool {
	return user != nil && user.RoleID == RoleSuperAdmin
}

// CanEditUser reports whether current may edit the user identified by
// targetID. Self-edit is always permitted; anything else requires the
// superadmin role or the user_edit permission.
func CanEditUser(current *User, targetID string, roles []Role) bool {
	if current == nil {
		return false
	}
	if IsSuperAdmin(current) {
		return true
	}
	if current.ID == targetID {
		return true
	}
	return HasPermission(current, PermUserEdit, roles)
}

// CanDeleteUser reports whether current may delete the user identified by
// targetID. Requires the user_delete permission and never permits
// self-deletion. The engine does not know which account is protected; the
// user service rejects protected targets separately.
func CanDeleteUser(current *User, targetID string, roles []Role) bool {
	if current == nil {
		return false
	}
	if !HasPermission(current, PermUserDelete, roles) {
		return false
	}
	return current.ID != targetID
}
