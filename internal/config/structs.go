package config

import (
	"time"

	"github.com/uniportal/uniportal-rbac/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool       `mapstructure:"devMode" toml:"devMode"` // enable dev mode for development
	DB        DB         `mapstructure:"db" toml:"db"`
	Log       logger.Log `mapstructure:"log" toml:"log"`
	Title     string     `mapstructure:"title" toml:"title"`
	Webserver Webserver  `mapstructure:"webserver" toml:"webserver"`
	RBAC      RBAC       `mapstructure:"rbac" toml:"rbac"`
	Seed      Seed       `mapstructure:"seed" toml:"seed"`
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   `mapstructure:"disableRecover" toml:"disableRecover"` // disable recover middleware
	Port           int    `mapstructure:"port" toml:"port"`                     // listening port for the webserver
	ShutDownTime   int    `mapstructure:"shutDownTime" toml:"shutDownTime"`     // seconds to wait for open requests on shutdown
	URL            string `mapstructure:"url" toml:"url"`                       // base url for the webserver
	// UserHeader is the header an upstream authentication proxy puts the user id in.
	UserHeader string `mapstructure:"userHeader" toml:"userHeader"`
	BodyLimit  int    `mapstructure:"bodyLimit" toml:"bodyLimit"` // bytes
}

// RBAC holds the tuning of the authorization core.
type RBAC struct {
	MinLevel     int           `mapstructure:"minLevel" toml:"minLevel"`
	MaxLevel     int           `mapstructure:"maxLevel" toml:"maxLevel"`
	StoreTimeout time.Duration `mapstructure:"storeTimeout" toml:"storeTimeout"`
	// CacheSize of 0 disables the effective permission cache.
	CacheSize int           `mapstructure:"cacheSize" toml:"cacheSize"`
	CacheTTL  time.Duration `mapstructure:"cacheTTL" toml:"cacheTTL"`
}

// Seed controls what migrate installs.
type Seed struct {
	// Actor is recorded in the audit log for seeded records.
	Actor string `mapstructure:"actor" toml:"actor"`
	// Administrators get the Administrator system role after seeding.
	Administrators []string `mapstructure:"administrators" toml:"administrators"`
}
