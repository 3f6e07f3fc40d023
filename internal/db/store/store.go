// Package store implements the rbac repositories on top of gorm.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

const (
	idQueryPattern = "id = ?"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Store is the gorm backed rbac.Store.
type Store struct {
	db *gorm.DB
}

// New creates a store on top of db.
func New(db *gorm.DB) *Store {
	if db == nil {
		panic(ErrDBNil)
	}

	return &Store{db: db}
}

// Migrate creates or updates the tables of the authorization core.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return pkgerrors.Wrap(db.AutoMigrate(
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.RoleAssignment{},
		&models.AuditEntry{},
	), "failed to migrate rbac tables")
}

// Transaction implements rbac.Store.
func (s *Store) Transaction(ctx context.Context, fn func(tx rbac.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Snapshot implements rbac.Store.
func (s *Store) Snapshot(ctx context.Context, fn func(tx rbac.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	}, snapshotOptions(s.db.Dialector.Name())...)
}

// snapshotOptions returns the transaction options giving a repeatable read view on dialect.
// SQLite transactions are already serializable and the driver rejects explicit isolation levels.
func snapshotOptions(dialect string) []*sql.TxOptions {
	switch dialect {
	case "postgres", "mysql":
		return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
	default:
		return nil
	}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound maps gorm.ErrRecordNotFound to target.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}

	return err
}

func likePattern(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

// ListPermissions implements rbac.PermissionStore.
func (s *Store) ListPermissions(ctx context.Context, filter rbac.PermissionFilter) ([]models.Permission, error) {
	q := s.conn(ctx).Model(&models.Permission{})

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("LOWER(id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(description) LIKE ?", p, p, p)
	}

	perms := []models.Permission{}
	if err := q.Order("id").Find(&perms).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list permissions")
	}

	return perms, nil
}

// GetPermission implements rbac.PermissionStore.
func (s *Store) GetPermission(ctx context.Context, id string) (*models.Permission, error) {
	var perm models.Permission
	if err := s.conn(ctx).Where(idQueryPattern, id).First(&perm).Error; err != nil {
		return nil, notFound(err, rbac.ErrPermissionNotFound)
	}

	return &perm, nil
}

// CreatePermission implements rbac.PermissionStore.
func (s *Store) CreatePermission(ctx context.Context, p *models.Permission) error {
	return pkgerrors.Wrap(s.conn(ctx).Create(p).Error, "failed to create permission")
}

// UpdatePermission implements rbac.PermissionStore.
func (s *Store) UpdatePermission(ctx context.Context, p *models.Permission) error {
	res := s.conn(ctx).Model(&models.Permission{}).Where(idQueryPattern, p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"version":     p.Version,
		"updated_at":  p.UpdatedAt,
	})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to update permission")
	}

	if res.RowsAffected == 0 {
		return rbac.ErrPermissionNotFound
	}

	return nil
}

// DeletePermission implements rbac.PermissionStore.
func (s *Store) DeletePermission(ctx context.Context, id string) error {
	res := s.conn(ctx).Where(idQueryPattern, id).Delete(&models.Permission{})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to delete permission")
	}

	if res.RowsAffected == 0 {
		return rbac.ErrPermissionNotFound
	}

	return nil
}

// RolesReferencingPermission implements rbac.PermissionStore.
func (s *Store) RolesReferencingPermission(ctx context.Context, permissionID string) ([]string, error) {
	var ids []string

	err := s.conn(ctx).Model(&models.RolePermission{}).
		Where("permission_id = ?", permissionID).
		Order("role_id").
		Pluck("role_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to find roles referencing permission")
	}

	return ids, nil
}

func withPermissions(db *gorm.DB) *gorm.DB {
	return db.Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// ListRoles implements rbac.RoleStore.
func (s *Store) ListRoles(ctx context.Context, filter rbac.RoleFilter) ([]models.Role, error) {
	q := withPermissions(s.conn(ctx).Model(&models.Role{}))

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}

	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", p, p)
	}

	roles := []models.Role{}
	if err := q.Order("name").Find(&roles).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list roles")
	}

	return roles, nil
}

// GetRole implements rbac.RoleStore.
func (s *Store) GetRole(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := withPermissions(s.conn(ctx)).Where(idQueryPattern, id).First(&role).Error; err != nil {
		return nil, notFound(err, rbac.ErrRoleNotFound)
	}

	return &role, nil
}

// GetRoleByName implements rbac.RoleStore.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := withPermissions(s.conn(ctx)).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, notFound(err, rbac.ErrRoleNotFound)
	}

	return &role, nil
}

// CreateRole implements rbac.RoleStore.
func (s *Store) CreateRole(ctx context.Context, r *models.Role) error {
	db := s.conn(ctx)

	if err := db.Omit(clause.Associations).Create(r).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to create role")
	}

	return replacePermissions(db, r)
}

// UpdateRole implements rbac.RoleStore.
func (s *Store) UpdateRole(ctx context.Context, r *models.Role, expectedVersion int) error {
	db := s.conn(ctx)

	res := db.Model(&models.Role{}).
		Where("id = ? AND version = ?", r.ID, expectedVersion).
		Updates(map[string]any{
			"name":        r.Name,
			"description": r.Description,
			"category":    r.Category,
			"level":       r.Level,
			"is_active":   r.IsActive,
			"version":     r.Version,
			"updated_at":  r.UpdatedAt,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to update role")
	}

	if res.RowsAffected == 0 {
		return rbac.ErrConcurrentModification
	}

	if err := db.Where("role_id = ?", r.ID).Delete(&models.RolePermission{}).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to clear role permissions")
	}

	return replacePermissions(db, r)
}

func replacePermissions(db *gorm.DB, r *models.Role) error {
	if len(r.Permissions) == 0 {
		return nil
	}

	for i := range r.Permissions {
		r.Permissions[i].RoleID = r.ID
	}

	return pkgerrors.Wrap(db.Create(&r.Permissions).Error, "failed to store role permissions")
}

// DeleteRole implements rbac.RoleStore.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	db := s.conn(ctx)

	if err := db.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to delete role permissions")
	}

	res := db.Where(idQueryPattern, id).Delete(&models.Role{})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to delete role")
	}

	if res.RowsAffected == 0 {
		return rbac.ErrRoleNotFound
	}

	return nil
}

// CreateAssignment implements rbac.AssignmentStore.
func (s *Store) CreateAssignment(ctx context.Context, a *models.RoleAssignment) error {
	return pkgerrors.Wrap(s.conn(ctx).Create(a).Error, "failed to create assignment")
}

// GetAssignment implements rbac.AssignmentStore.
func (s *Store) GetAssignment(ctx context.Context, id string) (*models.RoleAssignment, error) {
	var a models.RoleAssignment
	if err := s.conn(ctx).Where(idQueryPattern, id).First(&a).Error; err != nil {
		return nil, notFound(err, rbac.ErrAssignmentNotFound)
	}

	return &a, nil
}

// UpdateAssignment implements rbac.AssignmentStore.
func (s *Store) UpdateAssignment(ctx context.Context, a *models.RoleAssignment) error {
	res := s.conn(ctx).Model(&models.RoleAssignment{}).Where(idQueryPattern, a.ID).Updates(map[string]any{
		"expires_at": a.ExpiresAt,
		"scope":      a.Scope,
		"is_active":  a.IsActive,
		"updated_at": a.UpdatedAt,
	})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to update assignment")
	}

	if res.RowsAffected == 0 {
		return rbac.ErrAssignmentNotFound
	}

	return nil
}

// ListAssignments implements rbac.AssignmentStore.
func (s *Store) ListAssignments(ctx context.Context, filter rbac.AssignmentFilter) ([]models.RoleAssignment, error) {
	q := s.conn(ctx).Model(&models.RoleAssignment{})

	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}

	if filter.RoleID != "" {
		q = q.Where("role_id = ?", filter.RoleID)
	}

	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}

	assignments := []models.RoleAssignment{}
	if err := q.Order("assigned_at").Order("id").Find(&assignments).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list assignments")
	}

	return assignments, nil
}

// AppendAudit implements rbac.AuditStore.
func (s *Store) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	return pkgerrors.Wrap(s.conn(ctx).Create(e).Error, "failed to append audit entry")
}

// ListAudit implements rbac.AuditStore.
func (s *Store) ListAudit(ctx context.Context, filter rbac.AuditFilter) ([]models.AuditEntry, error) {
	q := s.conn(ctx).Model(&models.AuditEntry{})

	if filter.Actor != "" {
		q = q.Where("actor = ?", filter.Actor)
	}

	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	if filter.TargetKind != "" {
		q = q.Where("target_kind = ?", filter.TargetKind)
	}

	if filter.TargetID != "" {
		q = q.Where("target_id = ?", filter.TargetID)
	}

	if filter.TxID != "" {
		q = q.Where("tx_id = ?", filter.TxID)
	}

	if filter.From != nil {
		q = q.Where("created_at >= ?", filter.From.UTC())
	}

	if filter.To != nil {
		q = q.Where("created_at <= ?", filter.To.UTC())
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	entries := []models.AuditEntry{}
	if err := q.Order("created_at").Order("id").Find(&entries).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list audit entries")
	}

	return entries, nil
}
