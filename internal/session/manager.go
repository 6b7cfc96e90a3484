// Package session resolves the acting principal for each request and handles
// login and logout. The identity persisted in the session is the sanitized
// user record plus a hydrated permission snapshot; the snapshot is refreshed
// from the live role catalog on every read so a role edit takes effect
// without waiting for the background rehydration pass.
package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
	"github.com/payintrack/payintrack/internal/users"
)

// RoleSource yields the current role snapshot. Satisfied by the roles
// watcher.
type RoleSource interface {
	Roles() []authz.Role
	ByID(id string) (authz.Role, bool)
}

// Manager binds sessions to identities.
type Manager struct {
	sessions *shared.SessionManager
	users    *users.Service
	roles    RoleSource
	logger   *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(sessions *shared.SessionManager, userService *users.Service, roles RoleSource, logger *slog.Logger) *Manager {
	return &Manager{sessions: sessions, users: userService, roles: roles, logger: logger}
}

// Current resolves the acting principal from the session. A missing, corrupt
// or anonymous identity resolves to guest, never to an error. The hydrated
// permission set is replaced from the live role snapshot before the identity
// is returned.
func (m *Manager) Current(sess *shared.Session) *authz.User {
	if sess == nil {
		return authz.Guest()
	}
	raw := sess.Identity()
	if len(raw) == 0 {
		return authz.Guest()
	}
	var user authz.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return authz.Guest()
	}
	m.hydrate(&user)
	return &user
}

// Login authenticates the pair and binds the sanitized identity to the
// session.
func (m *Manager) Login(ctx context.Context, sess *shared.Session, username, password string) (*authz.User, error) {
	account, err := m.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	user := account.Sanitize()
	m.hydrate(&user)

	identity, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	sess.SetIdentity(identity)
	m.logger.Info("login", slog.String("user", user.Username), slog.String("role", user.RoleID))
	return &user, nil
}

// Logout destroys the session. The next request resolves to guest.
func (m *Manager) Logout(sess *shared.Session) {
	m.sessions.Destroy(sess)
}

// Rehydrate rewrites the permission snapshot stored in every persisted
// session from the current role catalog. Called by the background worker
// after the role collection changed. Returns the number of rewritten
// sessions.
func (m *Manager) Rehydrate(ctx context.Context) (int, error) {
	updated := 0
	err := m.sessions.ForEachSession(ctx, func(id string, payload *shared.SessionPayload) (bool, error) {
		if len(payload.Identity) == 0 {
			return false, nil
		}
		var user authz.User
		if err := json.Unmarshal(payload.Identity, &user); err != nil || user.ID == "" {
			return false, nil
		}
		before := user.Permissions
		m.hydrate(&user)
		if permissionsEqual(before, user.Permissions) {
			return false, nil
		}
		identity, err := json.Marshal(user)
		if err != nil {
			return false, err
		}
		payload.Identity = identity
		updated++
		return true, nil
	})
	return updated, err
}

// hydrate replaces the user's permission snapshot with the role's current
// set. A user whose role vanished keeps an explicitly empty set, which the
// engine treats as a full denial (superadmin excepted).
func (m *Manager) hydrate(user *authz.User) {
	role, ok := m.roles.ByID(user.RoleID)
	if !ok {
		user.Permissions = []authz.Permission{}
		return
	}
	perms := make([]authz.Permission, len(role.Permissions))
	copy(perms, role.Permissions)
	user.Permissions = perms
}

func permissionsEqual(a, b []authz.Permission) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
