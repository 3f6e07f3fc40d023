package rbac_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/db/store"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

const admin = "admin"

// fakeClock is a settable clock shared by the service under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type fixture struct {
	svc   *rbac.Service
	store *store.Store
	clock *fakeClock
}

// setupTestDB creates an in-memory SQLite database with the rbac schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, store.Migrate(db), "failed to migrate test database")

	return db
}

func setup(t *testing.T) *fixture {
	t.Helper()

	return setupWithStore(t, func(s rbac.Store) rbac.Store { return s })
}

// setupWithStore lets a test wrap the store handed to the service.
func setupWithStore(t *testing.T, wrap func(rbac.Store) rbac.Store) *fixture {
	t.Helper()

	st := store.New(setupTestDB(t))
	clock := newFakeClock()

	opts := rbac.DefaultOptions()
	opts.Now = clock.Now

	return &fixture{
		svc:   rbac.NewService(wrap(st), opts),
		store: st,
		clock: clock,
	}
}

// catalog seeds the permissions used across the tests.
func (f *fixture) catalog(t *testing.T) {
	t.Helper()

	_, err := f.svc.Catalog.EnsurePermissions(context.Background(), admin, []rbac.PermissionSpec{
		{ID: "grades:view", Name: "View grades", Category: models.CategoryAcademic},
		{ID: "grades:edit", Name: "Edit grades", Category: models.CategoryAcademic},
		{ID: "courses:manage", Name: "Manage courses", Category: models.CategoryAcademic},
		{ID: "payments:view", Name: "View payments", Category: models.CategoryFinancial},
		{ID: "payments:refund", Name: "Refund payments", Category: models.CategoryFinancial},
		{ID: "payments:approve", Name: "Approve payments", Category: models.CategoryFinancial},
		{ID: "fees:edit", Name: "Edit fees", Category: models.CategoryFinancial},
		{ID: "invoices:issue", Name: "Issue invoices", Category: models.CategoryFinancial},
		{ID: "tickets:reply", Name: "Reply to tickets", Category: models.CategoryCommunication},
	})
	require.NoError(t, err)
}

func (f *fixture) role(t *testing.T, name string, perms ...string) *models.Role {
	t.Helper()

	r, err := f.svc.Roles.CreateRole(context.Background(), admin, rbac.RoleSpec{
		Name:          name,
		Category:      models.CategoryAcademic,
		Level:         3,
		PermissionIDs: perms,
	})
	require.NoError(t, err)

	return r
}

func (f *fixture) assign(t *testing.T, userID string, expiresAt *time.Time, scope models.Scope, roles ...*models.Role) []models.RoleAssignment {
	t.Helper()

	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}

	created, err := f.svc.Assignments.AssignRole(context.Background(), rbac.AssignRequest{
		UserID:     userID,
		RoleIDs:    ids,
		AssignedBy: admin,
		ExpiresAt:  expiresAt,
		Scope:      scope,
	})
	require.NoError(t, err)

	return created
}

func ptr[T any](v T) *T {
	return &v
}
