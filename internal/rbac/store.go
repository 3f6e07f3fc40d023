package rbac

import (
	"context"
	"time"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// PermissionFilter narrows ListPermissions.
type PermissionFilter struct {
	Category models.Category
	Search   string
}

// RoleFilter narrows ListRoles.
type RoleFilter struct {
	Category models.Category
	Active   *bool
	Search   string
}

// AssignmentFilter narrows ListAssignments. Empty fields do not filter.
type AssignmentFilter struct {
	UserID          string
	RoleID          string
	IncludeInactive bool
}

// AuditFilter narrows audit log queries. Zero values do not filter.
type AuditFilter struct {
	Actor      string
	Action     models.AuditAction
	TargetKind models.AuditTarget
	TargetID   string
	TxID       string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// PermissionStore persists the permission catalog.
type PermissionStore interface {
	ListPermissions(ctx context.Context, filter PermissionFilter) ([]models.Permission, error)
	// GetPermission returns ErrPermissionNotFound for unknown ids.
	GetPermission(ctx context.Context, id string) (*models.Permission, error)
	CreatePermission(ctx context.Context, p *models.Permission) error
	UpdatePermission(ctx context.Context, p *models.Permission) error
	DeletePermission(ctx context.Context, id string) error
	// RolesReferencingPermission returns the ids of every role containing the permission.
	RolesReferencingPermission(ctx context.Context, permissionID string) ([]string, error)
}

// RoleStore persists roles together with their ordered permission sets.
type RoleStore interface {
	ListRoles(ctx context.Context, filter RoleFilter) ([]models.Role, error)
	// GetRole returns ErrRoleNotFound for unknown ids.
	GetRole(ctx context.Context, id string) (*models.Role, error)
	// GetRoleByName returns ErrRoleNotFound for unknown names.
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	CreateRole(ctx context.Context, r *models.Role) error
	// UpdateRole writes r only if the stored version still equals expectedVersion,
	// returning ErrConcurrentModification otherwise. The permission set is replaced.
	UpdateRole(ctx context.Context, r *models.Role, expectedVersion int) error
	DeleteRole(ctx context.Context, id string) error
}

// AssignmentStore persists the role assignment ledger.
type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a *models.RoleAssignment) error
	// GetAssignment returns ErrAssignmentNotFound for unknown ids.
	GetAssignment(ctx context.Context, id string) (*models.RoleAssignment, error)
	UpdateAssignment(ctx context.Context, a *models.RoleAssignment) error
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]models.RoleAssignment, error)
}

// AuditStore persists the append-only audit log.
type AuditStore interface {
	AppendAudit(ctx context.Context, e *models.AuditEntry) error
	ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error)
}

// Store combines every repository the core needs.
type Store interface {
	PermissionStore
	RoleStore
	AssignmentStore
	AuditStore

	// Transaction runs fn as one atomic unit against a point-in-time view of the store.
	// Any error returned by fn rolls back every write made through the passed Store.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Snapshot runs fn in a read-only transaction whose reads all observe the same
	// committed state, even when writers commit while fn runs.
	Snapshot(ctx context.Context, fn func(tx Store) error) error
}
