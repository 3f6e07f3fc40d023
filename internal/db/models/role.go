package models

import (
	"sort"
	"time"
)

// Role represents a role in the role-based access control (RBAC) system.
// Roles are ordered sets of permissions with a category and an authority level.
// Examples include "Registrar", "Bursar" and "Viewer" roles.
type Role struct {
	// ID is the unique identifier for the role.
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Name is the unique name of the role (e.g., "Registrar").
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Category is the functional area the role belongs to.
	Category Category `gorm:"type:varchar(30);not null" json:"category"`
	// Level is the authority level of the role, higher means more authority.
	Level int `gorm:"not null" json:"level"`
	// IsActive indicates whether assignments of this role currently grant anything.
	IsActive bool `gorm:"not null" json:"is_active"`
	// IsSystem indicates a protected role: only IsActive may change and it cannot be deleted.
	IsSystem bool `gorm:"not null" json:"is_system"`
	// Version is incremented on every mutation and guards concurrent writes.
	Version int `gorm:"not null" json:"version"`
	// Permissions holds the ordered permission set of the role.
	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// PermissionIDs returns the permission identifiers of the role in their stored order.
func (r *Role) PermissionIDs() []string {
	perms := make([]RolePermission, len(r.Permissions))
	copy(perms, r.Permissions)

	sort.SliceStable(perms, func(i, j int) bool {
		return perms[i].Position < perms[j].Position
	})

	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.PermissionID)
	}

	return ids
}

// HasPermission reports whether the role contains the given permission.
func (r *Role) HasPermission(permissionID string) bool {
	for _, p := range r.Permissions {
		if p.PermissionID == permissionID {
			return true
		}
	}

	return false
}

// SetPermissionIDs replaces the permission set keeping the given order.
// Duplicate identifiers are collapsed to their first occurrence.
func (r *Role) SetPermissionIDs(ids []string) {
	seen := make(map[string]struct{}, len(ids))
	r.Permissions = make([]RolePermission, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		r.Permissions = append(r.Permissions, RolePermission{
			RoleID:       r.ID,
			PermissionID: id,
			Position:     len(r.Permissions),
		})
	}
}
