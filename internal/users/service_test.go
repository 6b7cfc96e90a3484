package users

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/roles"
	"github.com/payintrack/payintrack/internal/shared"
)

const bootstrapPassword = "change-me-now"

func newFixture(t *testing.T) (*Service, *Store) {
	t.Helper()
	docs := docstore.NewMemoryStore()
	ctx := context.Background()

	roleStore := roles.NewStore(docs)
	require.NoError(t, roleStore.SeedDefaults(ctx))
	watcher := roles.NewWatcher(roleStore, slog.Default())
	require.NoError(t, watcher.Reload(ctx))

	store := NewStore(docs)
	require.NoError(t, store.SeedDefaults(ctx, bootstrapPassword))
	return NewService(store, watcher, nil, nil), store
}

func superadmin() *authz.User {
	return &authz.User{ID: authz.ProtectedUserID, Username: "admin", RoleID: authz.RoleSuperAdmin}
}

func TestSeedCreatesProtectedAdmin(t *testing.T) {
	_, store := newFixture(t)
	ctx := context.Background()

	admin, err := store.Get(ctx, authz.ProtectedUserID)
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)
	assert.Equal(t, authz.RoleSuperAdmin, admin.RoleID)
	assert.True(t, admin.Protected)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(bootstrapPassword)))

	// Seeding again must not reset a rotated credential.
	admin.PasswordHash = "$2a$10$rotated"
	require.NoError(t, store.Put(ctx, admin))
	require.NoError(t, store.SeedDefaults(ctx, bootstrapPassword))
	after, err := store.Get(ctx, authz.ProtectedUserID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$rotated", after.PasswordHash)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "  Admin ", bootstrapPassword)
	require.NoError(t, err)
	assert.Equal(t, authz.ProtectedUserID, user.ID)

	_, err = svc.Authenticate(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", bootstrapPassword)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, superadmin(), CreateInput{
		Username: "Alice",
		Name:     "Alice Reyes",
		Password: "s3cret-pass",
		RoleID:   "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Empty(t, created.PasswordHash)

	// Duplicate username, case-insensitive.
	_, err = svc.Create(ctx, superadmin(), CreateInput{
		Username: "ALICE",
		Name:     "Other Alice",
		Password: "s3cret-pass",
		RoleID:   "manager",
	})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Create(ctx, superadmin(), CreateInput{
		Username: "bob",
		Name:     "Bob",
		Password: "s3cret-pass",
		RoleID:   "no-such-role",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

type denialLog struct {
	permissions []string
}

func (d *denialLog) RecordDenial(permission string) {
	d.permissions = append(d.permissions, permission)
}

func TestListRequiresUserManagement(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	guest := &authz.User{ID: "g", RoleID: authz.RoleGuest}
	_, err := svc.List(ctx, guest)
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	// The seeded admin role carries user_edit, which is enough.
	manager := &authz.User{ID: "a1", RoleID: "admin"}
	listed, err := svc.List(ctx, manager)
	require.NoError(t, err)
	require.NotEmpty(t, listed)
	for _, u := range listed {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestCombinedGateDenialsUseOwnLabel(t *testing.T) {
	docs := docstore.NewMemoryStore()
	ctx := context.Background()

	roleStore := roles.NewStore(docs)
	require.NoError(t, roleStore.SeedDefaults(ctx))
	watcher := roles.NewWatcher(roleStore, slog.Default())
	require.NoError(t, watcher.Reload(ctx))
	store := NewStore(docs)
	require.NoError(t, store.SeedDefaults(ctx, bootstrapPassword))

	denials := &denialLog{}
	svc := NewService(store, watcher, nil, denials)

	guest := &authz.User{ID: "g", RoleID: authz.RoleGuest}
	_, err := svc.List(ctx, guest)
	require.ErrorIs(t, err, shared.ErrAccessDenied)
	_, err = svc.Get(ctx, guest, authz.ProtectedUserID)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	// The combined user_* gate reports under its own label, not user_edit.
	assert.Equal(t, []string{userManagementGate, userManagementGate}, denials.permissions)
}

func TestCreateRequiresPermission(t *testing.T) {
	svc, _ := newFixture(t)
	guest := &authz.User{ID: "g", RoleID: authz.RoleGuest}
	_, err := svc.Create(context.Background(), guest, CreateInput{
		Username: "carol",
		Name:     "Carol",
		Password: "s3cret-pass",
		RoleID:   "user",
	})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestSelfEditIsAlwaysAllowed(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, superadmin(), CreateInput{
		Username: "dave",
		Name:     "Dave",
		Password: "s3cret-pass",
		RoleID:   "guest",
	})
	require.NoError(t, err)

	self := &authz.User{ID: created.ID, Username: "dave", RoleID: "guest"}
	updated, err := svc.Update(ctx, self, created.ID, UpdateInput{Name: "David"})
	require.NoError(t, err)
	assert.Equal(t, "David", updated.Name)

	// Role escalation through self-edit is refused.
	_, err = svc.Update(ctx, self, created.ID, UpdateInput{Name: "David", RoleID: "admin"})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestRoleReassignmentIsSuperadminOnly(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, superadmin(), CreateInput{
		Username: "erin",
		Name:     "Erin",
		Password: "s3cret-pass",
		RoleID:   "user",
	})
	require.NoError(t, err)

	manager := &authz.User{ID: "m1", Username: "mia", RoleID: "manager"}
	_, err = svc.Update(ctx, manager, created.ID, UpdateInput{Name: "Erin", RoleID: "admin"})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	updated, err := svc.Update(ctx, superadmin(), created.ID, UpdateInput{Name: "Erin", RoleID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.RoleID)
}

func TestProtectedAccountRules(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	// The seeded account's role cannot change, even by a superadmin.
	_, err := svc.Update(ctx, superadmin(), authz.ProtectedUserID, UpdateInput{Name: "Root", RoleID: "admin"})
	assert.ErrorIs(t, err, shared.ErrProtectedEntity)

	// Another superadmin cannot delete the seeded account.
	other := &authz.User{ID: "2", Username: "root2", RoleID: authz.RoleSuperAdmin}
	assert.ErrorIs(t, svc.Delete(ctx, other, authz.ProtectedUserID), shared.ErrProtectedEntity)
}

func TestDeleteRules(t *testing.T) {
	svc, store := newFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, superadmin(), CreateInput{
		Username: "frank",
		Name:     "Frank",
		Password: "s3cret-pass",
		RoleID:   "user",
	})
	require.NoError(t, err)

	// Self-deletion is refused even with the permission.
	self := &authz.User{ID: created.ID, Username: "frank", RoleID: authz.RoleSuperAdmin}
	assert.ErrorIs(t, svc.Delete(ctx, self, created.ID), shared.ErrSelfDeletion)

	// Without user_delete the attempt is a plain denial.
	guest := &authz.User{ID: "g", RoleID: authz.RoleGuest}
	assert.ErrorIs(t, svc.Delete(ctx, guest, created.ID), shared.ErrAccessDenied)

	require.NoError(t, svc.Delete(ctx, superadmin(), created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
