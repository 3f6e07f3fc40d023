// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/uniportal/uniportal-rbac/internal/config"
)

// Create builds the MySQL Data Source Name from the configuration.
func Create(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.Extras,
	)
}

// CreatePostgres builds a key=value PostgreSQL DSN. Extras are appended verbatim.
func CreatePostgres(cfg *config.Config) string {
	parts := []string{
		"host=" + cfg.DB.Host,
		fmt.Sprintf("port=%d", cfg.DB.Port),
		"user=" + cfg.DB.User,
		"password=" + cfg.DB.Password,
		"dbname=" + cfg.DB.Name,
	}

	if cfg.DB.Extras != "" {
		parts = append(parts, cfg.DB.Extras)
	}

	return strings.Join(parts, " ")
}

// CreateSQLite returns the database file, with extras as query parameters.
func CreateSQLite(cfg *config.Config) string {
	if cfg.DB.Extras == "" {
		return cfg.DB.Name
	}

	return cfg.DB.Name + "?" + cfg.DB.Extras
}

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case "mysql":
		return mysql.Open(Create(cfg)), nil
	case "postgres":
		return postgres.Open(CreatePostgres(cfg)), nil
	case "sqlite":
		return sqlite.Open(CreateSQLite(cfg)), nil
	default:
		return nil, config.ErrUnknownEngine
	}
}
