package models

// RolePermission represents the many-to-many relationship between roles and permissions.
// This junction table maps which permissions are assigned to which roles and
// keeps the order in which they were added.
type RolePermission struct {
	// RoleID is the ID of the role in this mapping.
	RoleID string `gorm:"primaryKey;size:36;column:role_id" json:"-"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID string `gorm:"primaryKey;size:100;column:permission_id;index" json:"permission_id"`
	// Position is the zero based order of the permission inside the role.
	Position int `gorm:"not null" json:"position"`
}

// TableName specifies the database table name for the RolePermission model.
// This overrides GORM's default pluralized table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}
