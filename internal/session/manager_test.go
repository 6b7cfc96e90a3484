package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/roles"
	"github.com/payintrack/payintrack/internal/shared"
	"github.com/payintrack/payintrack/internal/users"
)

const bootstrapPassword = "change-me-now"

type fixture struct {
	manager  *Manager
	sessions *shared.SessionManager
	roles    *roles.Store
	watcher  *roles.Watcher
	users    *users.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	docs := docstore.NewMemoryStore()
	roleStore := roles.NewStore(docs)
	require.NoError(t, roleStore.SeedDefaults(ctx))
	watcher := roles.NewWatcher(roleStore, slog.Default())
	require.NoError(t, watcher.Reload(ctx))

	userStore := users.NewStore(docs)
	require.NoError(t, userStore.SeedDefaults(ctx, bootstrapPassword))
	userService := users.NewService(userStore, watcher, nil, nil)

	sessions := shared.NewSessionManager(client, "payintrack_session", time.Hour, false)
	manager := NewManager(sessions, userService, watcher, slog.Default())
	return &fixture{manager: manager, sessions: sessions, roles: roleStore, watcher: watcher, users: userService}
}

func (f *fixture) newSession(t *testing.T) *shared.Session {
	t.Helper()
	r := httptest.NewRequest("GET", "/", nil)
	sess, err := f.sessions.Load(r.Context(), r)
	require.NoError(t, err)
	return sess
}

func TestCurrentWithoutIdentityIsGuest(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)

	user := f.manager.Current(sess)
	assert.True(t, user.IsGuest())
	assert.Equal(t, authz.RoleGuest, user.RoleID)

	assert.True(t, f.manager.Current(nil).IsGuest())
}

func TestLoginRoundTrip(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	user, err := f.manager.Login(ctx, sess, "admin", bootstrapPassword)
	require.NoError(t, err)
	assert.Equal(t, authz.ProtectedUserID, user.ID)
	assert.Equal(t, authz.RoleSuperAdmin, user.RoleID)
	assert.Empty(t, user.PasswordHash)
	assert.ElementsMatch(t, authz.AllPermissions(), user.Permissions)

	// The persisted identity carries no credential either.
	var stored map[string]any
	require.NoError(t, json.Unmarshal(sess.Identity(), &stored))
	assert.NotContains(t, stored, "passwordHash")
	assert.Equal(t, authz.ProtectedUserID, stored["id"])
	assert.Equal(t, authz.RoleSuperAdmin, stored["roleId"])

	current := f.manager.Current(sess)
	assert.Equal(t, user.ID, current.ID)
	assert.False(t, current.IsGuest())
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)

	_, err := f.manager.Login(context.Background(), sess, "admin", "nope")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	assert.Empty(t, sess.Identity())
}

func TestLogoutResolvesToGuest(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	_, err := f.manager.Login(ctx, sess, "admin", bootstrapPassword)
	require.NoError(t, err)

	f.manager.Logout(sess)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	require.NoError(t, f.sessions.Commit(ctx, w, r, sess))

	fresh := f.newSession(t)
	assert.True(t, f.manager.Current(fresh).IsGuest())
}

func TestCurrentReflectsLiveRoleChange(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	_, err := f.users.Create(ctx, &authz.User{ID: "1", Username: "admin", RoleID: authz.RoleSuperAdmin}, users.CreateInput{
		Username: "gina",
		Name:     "Gina",
		Password: "s3cret-pass",
		RoleID:   "user",
	})
	require.NoError(t, err)

	_, err = f.manager.Login(ctx, sess, "gina", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, f.manager.Current(sess).Permissions, authz.PermPayinAdd)

	// Strip the role down and refresh the snapshot.
	role, err := f.roles.Get(ctx, "user")
	require.NoError(t, err)
	role.Permissions = []authz.Permission{authz.PermViewAnalytics}
	require.NoError(t, f.roles.Put(ctx, role))
	require.NoError(t, f.watcher.Reload(ctx))

	current := f.manager.Current(sess)
	assert.NotContains(t, current.Permissions, authz.PermPayinAdd)
	assert.Contains(t, current.Permissions, authz.PermViewAnalytics)
}

func TestRehydrateRewritesPersistedSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Create(ctx, &authz.User{ID: "1", Username: "admin", RoleID: authz.RoleSuperAdmin}, users.CreateInput{
		Username: "hana",
		Name:     "Hana",
		Password: "s3cret-pass",
		RoleID:   "user",
	})
	require.NoError(t, err)

	// Log in and persist the session record.
	r := httptest.NewRequest("POST", "/session", nil)
	sess, err := f.sessions.Load(r.Context(), r)
	require.NoError(t, err)
	_, err = f.manager.Login(ctx, sess, "hana", "s3cret-pass")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	require.NoError(t, f.sessions.Commit(ctx, w, r, sess))

	// Change the role, refresh the snapshot, rehydrate.
	role, err := f.roles.Get(ctx, "user")
	require.NoError(t, err)
	role.Permissions = []authz.Permission{authz.PermViewAnalytics}
	require.NoError(t, f.roles.Put(ctx, role))
	require.NoError(t, f.watcher.Reload(ctx))

	updated, err := f.manager.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	// A second pass is a no-op.
	updated, err = f.manager.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	err = f.sessions.ForEachSession(ctx, func(id string, payload *shared.SessionPayload) (bool, error) {
		var user authz.User
		require.NoError(t, json.Unmarshal(payload.Identity, &user))
		assert.Equal(t, []authz.Permission{authz.PermViewAnalytics}, user.Permissions)
		return false, nil
	})
	require.NoError(t, err)
}
