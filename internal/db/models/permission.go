package models

import "time"

// Permission represents an atomic capability in the authorization system.
// Permissions are referenced by roles through their identifier and are
// owned by the permission catalog.
type Permission struct {
	// ID is the unique permission identifier in resource:action format (e.g., "grades:edit").
	ID string `gorm:"primaryKey;size:100" json:"id"`
	// Name is the human readable name shown in role management screens.
	Name string `gorm:"size:100;not null" json:"name"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// Category is the functional area the permission belongs to.
	Category Category `gorm:"type:varchar(30);not null;index" json:"category"`
	// Version is incremented on every edit of the permission.
	Version int `gorm:"not null" json:"version"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
