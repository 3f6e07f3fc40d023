package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// setupTestStore creates a store on an in-memory SQLite database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection of an in-memory database is a separate database
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db), "failed to migrate test database")

	return New(db)
}

func seedPermissions(t *testing.T, s *Store, ids ...string) {
	t.Helper()

	for _, id := range ids {
		err := s.CreatePermission(context.Background(), &models.Permission{
			ID:       id,
			Name:     id,
			Category: models.CategoryAcademic,
			Version:  1,
		})
		require.NoError(t, err, "failed to seed permission")
	}
}

func newRole(id, name string, perms ...string) *models.Role {
	r := &models.Role{
		ID:       id,
		Name:     name,
		Category: models.CategoryAcademic,
		Level:    3,
		IsActive: true,
		Version:  1,
	}
	r.SetPermissionIDs(perms)

	return r
}

func TestNewPanicsOnNilDB(t *testing.T) {
	assert.PanicsWithValue(t, ErrDBNil, func() { New(nil) })
	assert.ErrorIs(t, Migrate(nil), ErrDBNil)
}

func TestPermissions(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	seedPermissions(t, s, "grades:view", "grades:edit", "courses:view")

	t.Run("get", func(t *testing.T) {
		p, err := s.GetPermission(ctx, "grades:edit")
		require.NoError(t, err)
		assert.Equal(t, "grades:edit", p.Name)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := s.GetPermission(ctx, "nope:nope")
		assert.ErrorIs(t, err, rbac.ErrPermissionNotFound)
		assert.ErrorIs(t, err, rbac.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := s.CreatePermission(ctx, &models.Permission{ID: "grades:view", Name: "x", Category: models.CategoryAcademic})
		assert.Error(t, err)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		perms, err := s.ListPermissions(ctx, rbac.PermissionFilter{Search: "GRADES"})
		require.NoError(t, err)

		ids := make([]string, 0, len(perms))
		for _, p := range perms {
			ids = append(ids, p.ID)
		}

		assert.Equal(t, []string{"grades:edit", "grades:view"}, ids)
	})

	t.Run("category filter", func(t *testing.T) {
		perms, err := s.ListPermissions(ctx, rbac.PermissionFilter{Category: models.CategoryFinancial})
		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("update", func(t *testing.T) {
		p, err := s.GetPermission(ctx, "courses:view")
		require.NoError(t, err)

		p.Name = "View courses"
		p.Version++
		require.NoError(t, s.UpdatePermission(ctx, p))

		got, err := s.GetPermission(ctx, "courses:view")
		require.NoError(t, err)
		assert.Equal(t, "View courses", got.Name)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("update unknown", func(t *testing.T) {
		err := s.UpdatePermission(ctx, &models.Permission{ID: "nope:nope", Name: "x"})
		assert.ErrorIs(t, err, rbac.ErrPermissionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeletePermission(ctx, "courses:view"))
		assert.ErrorIs(t, s.DeletePermission(ctx, "courses:view"), rbac.ErrPermissionNotFound)
	})
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	seedPermissions(t, s, "grades:view", "grades:edit", "courses:view")

	role := newRole("r1", "Registrar", "grades:edit", "grades:view")
	require.NoError(t, s.CreateRole(ctx, role))
	require.NoError(t, s.CreateRole(ctx, newRole("r2", "Viewer", "grades:view")))

	t.Run("permissions keep their order", func(t *testing.T) {
		got, err := s.GetRole(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"grades:edit", "grades:view"}, got.PermissionIDs())
	})

	t.Run("by name", func(t *testing.T) {
		got, err := s.GetRoleByName(ctx, "Viewer")
		require.NoError(t, err)
		assert.Equal(t, "r2", got.ID)

		_, err = s.GetRoleByName(ctx, "Dean")
		assert.ErrorIs(t, err, rbac.ErrRoleNotFound)
	})

	t.Run("referencing roles", func(t *testing.T) {
		ids, err := s.RolesReferencingPermission(ctx, "grades:view")
		require.NoError(t, err)
		assert.Equal(t, []string{"r1", "r2"}, ids)

		ids, err = s.RolesReferencingPermission(ctx, "courses:view")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("list filters", func(t *testing.T) {
		inactive := false

		roles, err := s.ListRoles(ctx, rbac.RoleFilter{Active: &inactive})
		require.NoError(t, err)
		assert.Empty(t, roles)

		roles, err = s.ListRoles(ctx, rbac.RoleFilter{Search: "regis"})
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, "Registrar", roles[0].Name)
		assert.Len(t, roles[0].Permissions, 2)
	})

	t.Run("update replaces permissions", func(t *testing.T) {
		got, err := s.GetRole(ctx, "r1")
		require.NoError(t, err)

		got.SetPermissionIDs([]string{"courses:view"})
		got.IsActive = false
		got.Version = 2
		require.NoError(t, s.UpdateRole(ctx, got, 1))

		got, err = s.GetRole(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"courses:view"}, got.PermissionIDs())
		assert.False(t, got.IsActive)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("stale version", func(t *testing.T) {
		stale := newRole("r1", "Registrar", "grades:view")
		stale.Version = 2

		err := s.UpdateRole(ctx, stale, 1)
		assert.ErrorIs(t, err, rbac.ErrConcurrentModification)

		got, err := s.GetRole(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"courses:view"}, got.PermissionIDs())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteRole(ctx, "r2"))
		assert.ErrorIs(t, s.DeleteRole(ctx, "r2"), rbac.ErrRoleNotFound)

		ids, err := s.RolesReferencingPermission(ctx, "grades:view")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestAssignments(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	expiry := now.Add(24 * time.Hour)

	assignments := []*models.RoleAssignment{
		{ID: "a1", UserID: "u1", RoleID: "r1", AssignedBy: "admin", AssignedAt: now, IsActive: true},
		{
			ID: "a2", UserID: "u1", RoleID: "r2", AssignedBy: "admin", AssignedAt: now.Add(time.Minute),
			ExpiresAt: &expiry, Scope: models.Scope{"department": "Physics"}, IsActive: true,
		},
		{ID: "a3", UserID: "u2", RoleID: "r1", AssignedBy: "admin", AssignedAt: now.Add(2 * time.Minute)},
	}
	for _, a := range assignments {
		require.NoError(t, s.CreateAssignment(ctx, a))
	}

	testCases := []struct {
		name     string
		filter   rbac.AssignmentFilter
		expected []string
	}{
		{name: "active of user", filter: rbac.AssignmentFilter{UserID: "u1"}, expected: []string{"a1", "a2"}},
		{name: "active of role", filter: rbac.AssignmentFilter{RoleID: "r1"}, expected: []string{"a1"}},
		{
			name:     "including inactive",
			filter:   rbac.AssignmentFilter{RoleID: "r1", IncludeInactive: true},
			expected: []string{"a1", "a3"},
		},
		{name: "unknown user", filter: rbac.AssignmentFilter{UserID: "u9"}, expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListAssignments(ctx, tc.filter)
			require.NoError(t, err)

			ids := []string{}
			for _, a := range got {
				ids = append(ids, a.ID)
			}

			assert.Equal(t, tc.expected, ids)
		})
	}

	t.Run("scope and expiry round trip", func(t *testing.T) {
		got, err := s.GetAssignment(ctx, "a2")
		require.NoError(t, err)
		assert.Equal(t, models.Scope{"department": "Physics"}, got.Scope)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, expiry.Equal(*got.ExpiresAt))
	})

	t.Run("update clears expiry and scope", func(t *testing.T) {
		got, err := s.GetAssignment(ctx, "a2")
		require.NoError(t, err)

		got.ExpiresAt = nil
		got.Scope = nil
		got.IsActive = false
		require.NoError(t, s.UpdateAssignment(ctx, got))

		got, err = s.GetAssignment(ctx, "a2")
		require.NoError(t, err)
		assert.Nil(t, got.ExpiresAt)
		assert.True(t, got.Scope.IsEmpty())
		assert.False(t, got.IsActive)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := s.GetAssignment(ctx, "nope")
		assert.ErrorIs(t, err, rbac.ErrAssignmentNotFound)
		assert.ErrorIs(t, s.UpdateAssignment(ctx, &models.RoleAssignment{ID: "nope"}), rbac.ErrAssignmentNotFound)
	})
}

func TestAudit(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	at := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	entries := []*models.AuditEntry{
		{ID: "e2", TxID: "t1", Actor: "admin", Action: models.AuditRoleCreate, TargetKind: models.AuditTargetRole, TargetID: "r1", CreatedAt: at},
		{ID: "e1", TxID: "t1", Actor: "admin", Action: models.AuditRoleUpdate, TargetKind: models.AuditTargetRole, TargetID: "r1", CreatedAt: at},
		{ID: "e3", TxID: "t2", Actor: "dean", Action: models.AuditAssignmentCreate, TargetKind: models.AuditTargetAssignment, TargetID: "a1", CreatedAt: at.Add(time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, s.AppendAudit(ctx, e))
	}

	testCases := []struct {
		name     string
		filter   rbac.AuditFilter
		expected []string
	}{
		{name: "all ordered by time then id", expected: []string{"e1", "e2", "e3"}},
		{name: "by actor", filter: rbac.AuditFilter{Actor: "dean"}, expected: []string{"e3"}},
		{name: "by tx", filter: rbac.AuditFilter{TxID: "t1"}, expected: []string{"e1", "e2"}},
		{
			name:     "by target",
			filter:   rbac.AuditFilter{TargetKind: models.AuditTargetRole, TargetID: "r1"},
			expected: []string{"e1", "e2"},
		},
		{name: "by action", filter: rbac.AuditFilter{Action: models.AuditRoleCreate}, expected: []string{"e2"}},
		{name: "limit", filter: rbac.AuditFilter{Limit: 1}, expected: []string{"e1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListAudit(ctx, tc.filter)
			require.NoError(t, err)

			ids := []string{}
			for _, e := range got {
				ids = append(ids, e.ID)
			}

			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	errBoom := errors.New("boom")

	err := s.Transaction(ctx, func(tx rbac.Store) error {
		if err := tx.CreatePermission(ctx, &models.Permission{ID: "grades:view", Name: "View", Category: models.CategoryAcademic}); err != nil {
			return err
		}

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = s.GetPermission(ctx, "grades:view")
	assert.ErrorIs(t, err, rbac.ErrPermissionNotFound)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	seedPermissions(t, s, "grades:view", "grades:edit")

	var got *models.Permission

	err := s.Snapshot(ctx, func(tx rbac.Store) error {
		var err error
		got, err = tx.GetPermission(ctx, "grades:edit")

		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "grades:edit", got.ID)

	errBoom := errors.New("boom")
	err = s.Snapshot(ctx, func(rbac.Store) error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
}

func TestSnapshotOptions(t *testing.T) {
	tests := []struct {
		dialect  string
		expected []*sql.TxOptions
	}{
		{"postgres", []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}},
		{"mysql", []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}},
		{"sqlite", nil},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			assert.Equal(t, tt.expected, snapshotOptions(tt.dialect))
		})
	}
}
