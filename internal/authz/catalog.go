// Package authz defines the permission catalog, the role and user entities,
// and the pure authorization engine used by every resource manager.
package authz

// Permission is an atomic, named capability drawn from a closed catalog.
type Permission string

// Catalog of grantable capabilities. The set is fixed at deploy time; every
// permission referenced anywhere in the system must appear here.
const (
	PermPayinAdd    Permission = "payin_add"
	PermPayinEdit   Permission = "payin_edit"
	PermPayinDelete Permission = "payin_delete"

	PermReferrorAdd    Permission = "referror_add"
	PermReferrorEdit   Permission = "referror_edit"
	PermReferrorDelete Permission = "referror_delete"

	PermMentorAdd    Permission = "mentor_add"
	PermMentorEdit   Permission = "mentor_edit"
	PermMentorDelete Permission = "mentor_delete"

	PermUserAdd    Permission = "user_add"
	PermUserEdit   Permission = "user_edit"
	PermUserDelete Permission = "user_delete"

	PermRoleAdd    Permission = "role_add"
	PermRoleEdit   Permission = "role_edit"
	PermRoleDelete Permission = "role_delete"

	PermViewAnalytics Permission = "view_analytics"
	PermViewAudit     Permission = "view_audit"
)

var catalog = []Permission{
	PermPayinAdd, PermPayinEdit, PermPayinDelete,
	PermReferrorAdd, PermReferrorEdit, PermReferrorDelete,
	PermMentorAdd, PermMentorEdit, PermMentorDelete,
	PermUserAdd, PermUserEdit, PermUserDelete,
	PermRoleAdd, PermRoleEdit, PermRoleDelete,
	PermViewAnalytics, PermViewAudit,
}

var catalogSet = func() map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(catalog))
	for _, p := range catalog {
		set[p] = struct{}{}
	}
	return set
}()

// AllPermissions returns the complete catalog in a stable order. The caller
// receives a copy and may mutate it freely.
func AllPermissions() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// IsKnownPermission reports whether p belongs to the catalog.
func IsKnownPermission(p Permission) bool {
	_, ok := catalogSet[p]
	return ok
}
