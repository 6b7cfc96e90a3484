package payins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/shared"
)

type staticRoles struct{}

func (staticRoles) Roles() []authz.Role { return authz.DefaultRoles() }

func newService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(docstore.NewMemoryStore(), staticRoles{}, nil, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC)
	}
	return svc
}

func manager() *authz.User {
	return &authz.User{ID: "m1", Username: "mia", Name: "Mia Santos", RoleID: "manager"}
}

func admin() *authz.User {
	return &authz.User{ID: "1", Username: "admin", Name: "Super Admin", RoleID: authz.RoleSuperAdmin}
}

func TestCreateStampsCreator(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, manager(), Input{
		Name:     "April batch",
		Amount:   1500,
		Referror: "Reyes",
		Mentor:   "Cruz",
		Date:     "2025-04-10",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "m1", p.CreatedBy)
	assert.Equal(t, "Mia Santos", p.CreatedByName)
	assert.Equal(t, "2025-04-15T10:30:00Z", p.CreatedAt)
	assert.Empty(t, p.UpdatedBy)
	assert.False(t, p.IsEncoded)
	assert.Empty(t, p.EncodedDate)
}

func TestCreateRequiresPayinAdd(t *testing.T) {
	svc := newService(t)
	guest := &authz.User{ID: "g", RoleID: authz.RoleGuest}
	_, err := svc.Create(context.Background(), guest, Input{
		Name: "Blocked", Amount: 10, Date: "2025-04-10",
	})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), admin(), Input{
		Name: "Bad date", Amount: 10, Date: "15/04/2025",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), admin(), Input{
		Name: "No amount", Date: "2025-04-15",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateStampsEditorAndEncodedDate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, manager(), Input{
		Name: "April batch", Amount: 1500, Date: "2025-04-10",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin(), p.ID, Input{
		Name: "April batch", Amount: 1750, Date: "2025-04-10", IsEncoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1750.0, updated.Amount)
	assert.Equal(t, "1", updated.UpdatedBy)
	assert.Equal(t, "Super Admin", updated.UpdatedByName)
	assert.True(t, updated.IsEncoded)
	assert.Equal(t, "2025-04-15", updated.EncodedDate)
	// Creator stamp survives the edit.
	assert.Equal(t, "m1", updated.CreatedBy)

	// Flipping back clears the encoded date.
	reverted, err := svc.Update(ctx, admin(), p.ID, Input{
		Name: "April batch", Amount: 1750, Date: "2025-04-10", IsEncoded: false,
	})
	require.NoError(t, err)
	assert.Empty(t, reverted.EncodedDate)
}

func TestDeleteRequiresPayinDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, manager(), Input{
		Name: "April batch", Amount: 1500, Date: "2025-04-10",
	})
	require.NoError(t, err)

	// Manager holds payin_add and payin_edit but not payin_delete.
	assert.ErrorIs(t, svc.Delete(ctx, manager(), p.ID), shared.ErrAccessDenied)

	require.NoError(t, svc.Delete(ctx, admin(), p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListOrdersByDateDescending(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, date := range []string{"2025-04-01", "2025-04-20", "2025-04-10"} {
		_, err := svc.Create(ctx, admin(), Input{Name: "Batch " + date, Amount: 100, Date: date})
		require.NoError(t, err)
	}

	payins, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, payins, 3)
	assert.Equal(t, "2025-04-20", payins[0].Date)
	assert.Equal(t, "2025-04-01", payins[2].Date)
}

func TestAnalytics(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	seed := []Input{
		{Name: "A", Amount: 100, Referror: "Reyes", Mentor: "Cruz", Date: "2025-03-05", IsEncoded: true},
		{Name: "B", Amount: 300, Referror: "Reyes", Mentor: "Lim", Date: "2025-04-02"},
		{Name: "C", Amount: 50, Referror: "Tan", Mentor: "Cruz", Date: "2025-04-20"},
		{Name: "D", Amount: 25, Date: "2025-05-01"},
	}
	for _, input := range seed {
		_, err := svc.Create(ctx, admin(), input)
		require.NoError(t, err)
	}

	// Guest may view analytics.
	guest := &authz.User{ID: "g", RoleID: authz.RoleGuest}
	result, err := svc.Analytics(ctx, guest, AnalyticsFilters{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, 475.0, result.TotalAmount)
	assert.InDelta(t, 118.75, result.AverageAmount, 0.001)
	assert.Equal(t, 1, result.EncodedCount)

	require.NotEmpty(t, result.ByReferror)
	assert.Equal(t, Bucket{Key: "Reyes", Count: 2, Amount: 400}, result.ByReferror[0])

	require.Len(t, result.ByMonth, 3)
	assert.Equal(t, "2025-03", result.ByMonth[0].Key)
	assert.Equal(t, "2025-05", result.ByMonth[2].Key)

	// Date window narrows the aggregate.
	windowed, err := svc.Analytics(ctx, guest, AnalyticsFilters{From: "2025-04-01", To: "2025-04-30"})
	require.NoError(t, err)
	assert.Equal(t, 2, windowed.TotalCount)
	assert.Equal(t, 350.0, windowed.TotalAmount)

	// A referror filter narrows to that referror's records only.
	byReferror, err := svc.Analytics(ctx, guest, AnalyticsFilters{Referror: "Reyes"})
	require.NoError(t, err)
	assert.Equal(t, 2, byReferror.TotalCount)
	assert.Equal(t, 400.0, byReferror.TotalAmount)
	require.Len(t, byReferror.ByMentor, 2)
}

func TestAnalyticsDeniedWithoutPermission(t *testing.T) {
	svc := newService(t)
	nobody := &authz.User{ID: "x", RoleID: "no-such-role"}
	_, err := svc.Analytics(context.Background(), nobody, AnalyticsFilters{})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}
