package models

import "time"

// AuditAction names a mutation recorded in the audit log.
type AuditAction string

const (
	AuditPermissionCreate AuditAction = "permission.create"
	AuditPermissionUpdate AuditAction = "permission.update"
	AuditPermissionDelete AuditAction = "permission.delete"

	AuditRoleCreate AuditAction = "role.create"
	AuditRoleUpdate AuditAction = "role.update"
	AuditRoleDelete AuditAction = "role.delete"
	AuditRoleClone  AuditAction = "role.clone"
	AuditRoleToggle AuditAction = "role.toggle_category"

	AuditAssignmentCreate     AuditAction = "assignment.create"
	AuditAssignmentUpdate     AuditAction = "assignment.update"
	AuditAssignmentDeactivate AuditAction = "assignment.deactivate"
)

// AuditTarget names the kind of object an audit entry refers to.
type AuditTarget string

const (
	AuditTargetPermission AuditTarget = "permission"
	AuditTargetRole       AuditTarget = "role"
	AuditTargetAssignment AuditTarget = "assignment"
)

// AuditEntry is an append-only record of a role, permission or assignment mutation.
// Before and After hold JSON snapshots of the target; Before is empty on
// creation and After is empty on deletion.
type AuditEntry struct {
	ID         string      `gorm:"primaryKey;size:36" json:"id"`
	TxID       string      `gorm:"size:36;not null;index" json:"tx_id"`
	Actor      string      `gorm:"size:100;not null;index" json:"actor"`
	Action     AuditAction `gorm:"type:varchar(40);not null" json:"action"`
	TargetKind AuditTarget `gorm:"type:varchar(20);not null;index:idx_audit_target" json:"target_kind"`
	TargetID   string      `gorm:"size:100;not null;index:idx_audit_target" json:"target_id"`
	Before     string      `gorm:"type:text" json:"before,omitempty"`
	After      string      `gorm:"type:text" json:"after,omitempty"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}

// TableName specifies the database table name for the AuditEntry model.
func (AuditEntry) TableName() string {
	return "audit_log"
}
