// Package models contains the gorm model definitions of the authorization core:
// permissions, roles with their ordered permission sets, role assignments and
// the append-only audit log.
package models
