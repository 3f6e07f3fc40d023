package models

import "time"

// AssignmentState is the lifecycle state of a role assignment at a given instant.
type AssignmentState string

const (
	// AssignmentActive means the assignment is active and not expired.
	AssignmentActive AssignmentState = "active"
	// AssignmentExpired is derived at read time once the expiry has passed.
	AssignmentExpired AssignmentState = "expired"
	// AssignmentDeactivated is the stored terminal state after an operator removal.
	AssignmentDeactivated AssignmentState = "deactivated"
)

// RoleAssignment links a user to a role.
// Assignments are never hard-deleted; removal sets IsActive to false so the
// history stays available for audits.
type RoleAssignment struct {
	// ID is the unique identifier for the assignment.
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// UserID identifies the user holding the role.
	UserID string `gorm:"size:100;not null;index" json:"user_id"`
	// RoleID is the ID of the assigned role.
	RoleID string `gorm:"size:36;not null;index" json:"role_id"`
	// AssignedBy identifies who created the assignment.
	AssignedBy string `gorm:"size:100;not null" json:"assigned_by"`
	// AssignedAt is the instant the assignment was created.
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
	// ExpiresAt is the optional instant from which the assignment stops granting.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// Scope optionally restricts where the assignment applies.
	Scope Scope `gorm:"type:text" json:"scope,omitempty"`
	// IsActive is false once the assignment has been removed.
	IsActive bool `gorm:"not null" json:"is_active"`
	// UpdatedAt is the timestamp when the assignment was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the RoleAssignment model.
// This overrides GORM's default pluralized table naming.
func (RoleAssignment) TableName() string {
	return "role_assignments"
}

// Expired reports whether the assignment's expiry has passed at t.
func (a *RoleAssignment) Expired(t time.Time) bool {
	return a.ExpiresAt != nil && !t.Before(*a.ExpiresAt)
}

// InEffect reports whether the assignment itself grants at t.
// The referenced role must additionally be active.
func (a *RoleAssignment) InEffect(t time.Time) bool {
	return a.IsActive && !a.Expired(t)
}

// State returns the lifecycle state of the assignment at t.
func (a *RoleAssignment) State(t time.Time) AssignmentState {
	switch {
	case !a.IsActive:
		return AssignmentDeactivated
	case a.Expired(t):
		return AssignmentExpired
	default:
		return AssignmentActive
	}
}
