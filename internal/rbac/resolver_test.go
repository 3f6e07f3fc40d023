package rbac_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

var errDatabaseDown = errors.New("database is down")

// flakyStore fails assignment reads while down is set.
type flakyStore struct {
	rbac.Store
	down *atomic.Bool
}

func (s flakyStore) ListAssignments(ctx context.Context, filter rbac.AssignmentFilter) ([]models.RoleAssignment, error) {
	if s.down.Load() {
		return nil, errDatabaseDown
	}

	return s.Store.ListAssignments(ctx, filter)
}

func (s flakyStore) Transaction(ctx context.Context, fn func(tx rbac.Store) error) error {
	return s.Store.Transaction(ctx, func(tx rbac.Store) error {
		return fn(flakyStore{Store: tx, down: s.down})
	})
}

func (s flakyStore) Snapshot(ctx context.Context, fn func(tx rbac.Store) error) error {
	return s.Store.Snapshot(ctx, func(tx rbac.Store) error {
		return fn(flakyStore{Store: tx, down: s.down})
	})
}

func TestResolveEmptyWithoutAssignments(t *testing.T) {
	f := setup(t)
	f.catalog(t)
	f.role(t, "Viewer", "grades:view")

	res, err := f.svc.Resolver.Resolve(context.Background(), "nobody", f.clock.Now())
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Grants)
	assert.NotNil(t, res.Permissions)
}

func TestResolveExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	viewer := f.role(t, "Viewer", "grades:view")
	start := f.clock.Now()
	expiry := start.Add(time.Hour)
	f.assign(t, "u1", &expiry, nil, viewer)

	testCases := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{name: "at assignment", at: start, expected: true},
		{name: "just before expiry", at: expiry.Add(-time.Nanosecond), expected: true},
		{name: "at expiry", at: expiry, expected: false},
		{name: "after expiry", at: expiry.Add(time.Hour), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.svc.Resolver.Resolve(ctx, "u1", tc.at)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Has("grades:view"))
		})
	}
}

func TestResolveUnion(t *testing.T) {
	f := setup(t)
	f.catalog(t)

	r1 := f.role(t, "R1", "grades:view", "grades:edit")
	r2 := f.role(t, "R2", "grades:edit", "courses:manage")
	f.assign(t, "u1", nil, nil, r1, r2)

	res, err := f.svc.Resolver.Resolve(context.Background(), "u1", f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"courses:manage", "grades:edit", "grades:view"}, res.Permissions)
	assert.Len(t, res.GrantsFor("grades:edit"), 2)
	assert.Len(t, res.GrantsFor("grades:view"), 1)
}

func TestResolveIsDeterministic(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	r1 := f.role(t, "R1", "grades:view")
	r2 := f.role(t, "R2", "payments:view")
	f.assign(t, "u1", nil, models.Scope{"department": "Physics"}, r2, r1)
	f.assign(t, "u1", nil, nil, r2)

	first, err := f.svc.Resolver.Resolve(ctx, "u1", f.clock.Now())
	require.NoError(t, err)

	second, err := f.svc.Resolver.Resolve(ctx, "u1", f.clock.Now())
	require.NoError(t, err)

	assert.Equal(t, first.Permissions, second.Permissions)
	require.Len(t, first.Grants, 3)

	for i := range first.Grants {
		assert.Equal(t, first.Grants[i].Assignment.ID, second.Grants[i].Assignment.ID)
	}

	assert.Equal(t, "R1", first.Grants[0].Role.Name)
	assert.Equal(t, "R2", first.Grants[1].Role.Name)
	assert.True(t, first.Grants[1].Assignment.Scope.IsEmpty())
}

func TestResolveCollapsesDuplicateAssignments(t *testing.T) {
	f := setup(t)
	f.catalog(t)

	viewer := f.role(t, "Viewer", "grades:view")
	expiry := f.clock.Now().Add(time.Hour)
	f.assign(t, "u1", &expiry, nil, viewer)
	open := f.assign(t, "u1", nil, nil, viewer)[0]

	res, err := f.svc.Resolver.Resolve(context.Background(), "u1", f.clock.Now())
	require.NoError(t, err)
	require.Len(t, res.Grants, 1)
	assert.Equal(t, open.ID, res.Grants[0].Assignment.ID)
	assert.Nil(t, res.ValidUntil())
}

func TestResolveLazyRevocation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	viewer := f.role(t, "Viewer", "grades:view")
	f.assign(t, "u1", nil, nil, viewer)
	f.assign(t, "u2", nil, nil, viewer)

	for _, u := range []string{"u1", "u2"} {
		res, err := f.svc.Resolver.ResolveNow(ctx, u)
		require.NoError(t, err)
		require.True(t, res.Has("grades:view"))
	}

	_, err := f.svc.Roles.UpdateRole(ctx, admin, viewer.ID, rbac.RolePatch{IsActive: ptr(false)})
	require.NoError(t, err)

	for _, u := range []string{"u1", "u2"} {
		res, err := f.svc.Resolver.ResolveNow(ctx, u)
		require.NoError(t, err)
		assert.False(t, res.Has("grades:view"), u)
	}

	_, err = f.svc.Roles.UpdateRole(ctx, admin, viewer.ID, rbac.RolePatch{IsActive: ptr(true)})
	require.NoError(t, err)

	res, err := f.svc.Resolver.ResolveNow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, res.Has("grades:view"))
}

func TestResolveSkipsMissingRoles(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	viewer := f.role(t, "Viewer", "grades:view")
	f.assign(t, "u1", nil, nil, viewer)

	require.NoError(t, f.store.CreateAssignment(ctx, &models.RoleAssignment{
		ID:         "dangling",
		UserID:     "u1",
		RoleID:     "ghost",
		AssignedBy: admin,
		AssignedAt: f.clock.Now(),
		IsActive:   true,
	}))

	res, err := f.svc.Resolver.Resolve(ctx, "u1", f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"grades:view"}, res.Permissions)
}

func TestResolveUnavailable(t *testing.T) {
	down := &atomic.Bool{}
	f := setupWithStore(t, func(s rbac.Store) rbac.Store { return flakyStore{Store: s, down: down} })
	f.catalog(t)

	viewer := f.role(t, "Viewer", "grades:view")
	f.assign(t, "u1", nil, nil, viewer)

	down.Store(true)

	_, err := f.svc.Resolver.Resolve(context.Background(), "u1", f.clock.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, rbac.ErrResolutionUnavailable)
	assert.ErrorIs(t, err, errDatabaseDown)
	assert.Equal(t, rbac.KindResolutionUnavailable, rbac.KindOf(err))
}

func TestResolveHistorical(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	t0 := f.clock.Now()
	viewer := f.role(t, "Viewer", "grades:view")
	a := f.assign(t, "u1", nil, nil, viewer)[0]

	f.clock.Advance(time.Hour)
	_, err := f.svc.Roles.UpdateRole(ctx, admin, viewer.ID, rbac.RolePatch{
		PermissionIDs: &[]string{"grades:view", "grades:edit"},
	})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Assignments.RemoveAssignment(ctx, admin, a.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	testCases := []struct {
		name     string
		at       time.Time
		expected []string
	}{
		{name: "before assignment", at: t0.Add(-time.Minute), expected: []string{}},
		{name: "original role", at: t0.Add(30 * time.Minute), expected: []string{"grades:view"}},
		{name: "after role edit", at: t0.Add(90 * time.Minute), expected: []string{"grades:edit", "grades:view"}},
		{name: "after removal", at: t0.Add(150 * time.Minute), expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.svc.Resolver.ResolveHistorical(ctx, "u1", tc.at)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Permissions)
		})
	}

	current, err := f.svc.Resolver.Resolve(ctx, "u1", t0.Add(90*time.Minute))
	require.NoError(t, err)
	assert.True(t, current.Empty(), "the current state no longer holds the removed assignment")
}

func TestResolveHistoricalSurvivesRoleDeletion(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	t0 := f.clock.Now()
	tutor := f.role(t, "Tutor", "grades:edit")
	a := f.assign(t, "u1", nil, nil, tutor)[0]

	f.clock.Advance(time.Hour)
	_, err := f.svc.Assignments.RemoveAssignment(ctx, admin, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Roles.DeleteRole(ctx, admin, tutor.ID))

	res, err := f.svc.Resolver.ResolveHistorical(ctx, "u1", t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"grades:edit"}, res.Permissions)
}

func TestResolveNowInvalidatesOnAssignment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.catalog(t)

	viewer := f.role(t, "Viewer", "grades:view")
	tutor := f.role(t, "Tutor", "grades:edit")
	f.assign(t, "u1", nil, nil, viewer)

	res, err := f.svc.Resolver.ResolveNow(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"grades:view"}, res.Permissions)
	assert.Equal(t, 1, f.svc.Cache.Len())

	a := f.assign(t, "u1", nil, nil, tutor)[0]
	assert.Equal(t, 0, f.svc.Cache.Len())

	res, err = f.svc.Resolver.ResolveNow(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"grades:edit", "grades:view"}, res.Permissions)

	_, err = f.svc.Assignments.RemoveAssignment(ctx, admin, a.ID)
	require.NoError(t, err)

	res, err = f.svc.Resolver.ResolveNow(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"grades:view"}, res.Permissions)
}
