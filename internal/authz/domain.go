package authz

// Reserved role identifiers. Both roles are seeded on first run and are
// protected from deletion for the lifetime of the system.
const (
	RoleSuperAdmin = "superadmin"
	RoleGuest      = "guest"
)

// GuestUserID identifies the synthetic guest principal. It has no backing
// record in the user collection.
const GuestUserID = "guest"

// ProtectedUserID is the id of the seeded super-admin account, kept as a
// legacy guard alongside the Protected flag on the record itself.
const ProtectedUserID = "1"

// Role is a named bundle of permissions. Identity is ID.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission reports whether the role grants p.
func (r Role) HasPermission(p Permission) bool {
	for _, granted := range r.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// User is an account bound to exactly one role. PasswordHash is present only
// at rest; Sanitize strips it before the record leaves the store layer.
//
// Permissions, when non-nil, is a hydrated snapshot of the role's permission
// set attached for fast lookup. The engine trusts it over a role lookup; the
// session layer keeps it fresh whenever the role collection changes.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Name         string       `json:"name"`
	RoleID       string       `json:"roleId"`
	PasswordHash string       `json:"passwordHash,omitempty"`
	Permissions  []Permission `json:"permissions,omitempty"`
	Protected    bool         `json:"protected,omitempty"`
}

// Sanitize returns a copy of the user safe to persist in a session or return
// to a client: the credential is removed, everything else is kept.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}

// Guest returns the synthetic guest identity used when no session exists.
func Guest() *User {
	return &User{ID: GuestUserID, Name: "Guest", RoleID: RoleGuest}
}

// IsGuest reports whether the user is the synthetic guest principal.
func (u User) IsGuest() bool {
	return u.ID == GuestUserID
}
