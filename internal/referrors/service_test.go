package referrors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/shared"
)

type staticRoles struct{}

func (staticRoles) Roles() []authz.Role { return authz.DefaultRoles() }

func TestReferrorLifecycle(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), staticRoles{}, nil, nil)
	ctx := context.Background()
	admin := &authz.User{ID: "1", Username: "admin", Name: "Super Admin", RoleID: authz.RoleSuperAdmin}

	rec, err := svc.Create(ctx, admin, Input{Name: "Reyes", Phone: "+63 900 000 0000", Notes: "campus lead"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "1", rec.CreatedBy)

	updated, err := svc.Update(ctx, admin, rec.ID, Input{Name: "Reyes Jr", Phone: rec.Phone})
	require.NoError(t, err)
	assert.Equal(t, "Reyes Jr", updated.Name)
	assert.Equal(t, "Super Admin", updated.UpdatedByName)

	require.NoError(t, svc.Delete(ctx, admin, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReferrorPermissionGates(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), staticRoles{}, nil, nil)
	ctx := context.Background()

	// The user role has no referror permissions at all.
	user := &authz.User{ID: "u1", RoleID: "user"}
	_, err := svc.Create(ctx, user, Input{Name: "Blocked"})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	// The manager role may add and edit but not delete.
	mgr := &authz.User{ID: "m1", Username: "mia", RoleID: "manager"}
	rec, err := svc.Create(ctx, mgr, Input{Name: "Tan"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, mgr, rec.ID), shared.ErrAccessDenied)
}

func TestReferrorValidation(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), staticRoles{}, nil, nil)
	admin := &authz.User{ID: "1", RoleID: authz.RoleSuperAdmin}
	_, err := svc.Create(context.Background(), admin, Input{Name: "R"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
