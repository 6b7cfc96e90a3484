package mentors

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

func TestMentorLifecycle(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), staticRoles{}, nil, nil)
	ctx := context.Background()
	admin := &authz.User{ID: "1", Username: "admin", Name: "Super Admin", RoleID: authz.RoleSuperAdmin}

	rec, err := svc.Create(ctx, admin, Input{Name: "Cruz", Notes: "weekend cohort"})
	require.NoError(t, err)
	assert.Equal(t, "Super Admin", rec.CreatedByName)

	updated, err := svc.Update(ctx, admin, rec.ID, Input{Name: "Cruz", Phone: "+63 900 111 2222"})
	require.NoError(t, err)
	assert.Equal(t, "+63 900 111 2222", updated.Phone)

	require.NoError(t, svc.Delete(ctx, admin, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMentorPermissionGates(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), staticRoles{}, nil, nil)
	ctx := context.Background()

	user := &authz.User{ID: "u1", RoleID: "user"}
	_, err := svc.Create(ctx, user, Input{Name: "Blocked"})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)

	mgr := &authz.User{ID: "m1", Username: "mia", RoleID: "manager"}
	rec, err := svc.Create(ctx, mgr, Input{Name: "Lim"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, mgr, rec.ID), shared.ErrAccessDenied)
}
