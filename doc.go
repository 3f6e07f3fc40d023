// Package main provides the entry point of the university portal's
// authorization service. It keeps the permission catalog, the role registry
// and the role assignment ledger in a gorm database, resolves effective
// permissions and serves permission checks and an admin API through fiber.
package main
