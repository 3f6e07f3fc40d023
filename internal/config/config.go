// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvConfigJSON names the environment variable holding a JSON document merged over main.toml.
const EnvConfigJSON = "UNIPORTAL_RBAC_CONFIG_JSON"

const invalidErrMessage = "invalid config"

// setDefaults registers the values used when main.toml omits a key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "UniPortal RBAC")
	v.SetDefault("db.gormEngine", "sqlite")
	v.SetDefault("db.name", "uniportal-rbac.db")
	v.SetDefault("log.logLevel", "info")
	v.SetDefault("log.appName", "uniportal-rbac")
	v.SetDefault("log.serviceName", "rbac")
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("webserver.shutDownTime", 5) //nolint:mnd
	v.SetDefault("webserver.userHeader", "X-User-ID")
	v.SetDefault("webserver.bodyLimit", 1<<20) //nolint:mnd
	v.SetDefault("rbac.minLevel", 1)
	v.SetDefault("rbac.maxLevel", 10)                  //nolint:mnd
	v.SetDefault("rbac.storeTimeout", 5*time.Second)   //nolint:mnd
	v.SetDefault("rbac.cacheSize", 4096)               //nolint:mnd
	v.SetDefault("rbac.cacheTTL", time.Minute)
	v.SetDefault("seed.actor", "system")
}

// ReadConfig reads main.toml from path (default ./etc/) and applies the
// JSON override from EnvConfigJSON on top of it.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if override := os.Getenv(EnvConfigJSON); override != "" {
		var err error

		c, err = decodeAndMergeConfig(c, override)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without and
// fills in fallbacks for optional ones.
func validate(c *Config) error {
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "mysql", "postgres", "sqlite":
	default:
		return errors.Wrap(ErrUnknownEngine, invalidErrMessage)
	}

	if c.RBAC.MinLevel > c.RBAC.MaxLevel {
		return errors.Wrap(ErrLevelBounds, invalidErrMessage)
	}

	if c.RBAC.StoreTimeout < 0 || c.RBAC.CacheTTL < 0 {
		return errors.Wrap(ErrNegativeDuration, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // seconds
	}

	if c.Webserver.UserHeader == "" {
		c.Webserver.UserHeader = "X-User-ID"
	}

	return nil
}
