package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectConfigPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err, "failed to get project root")

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(projectConfigPath(t))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Title)
	assert.Equal(t, 8080, cfg.Webserver.Port)
	assert.NotEmpty(t, cfg.Webserver.URL)
	assert.Equal(t, "X-User-ID", cfg.Webserver.UserHeader)
	assert.Equal(t, "sqlite", cfg.DB.GormEngine)

	assert.Equal(t, 1, cfg.RBAC.MinLevel)
	assert.Equal(t, 10, cfg.RBAC.MaxLevel)
	assert.Equal(t, 5*time.Second, cfg.RBAC.StoreTimeout)
	assert.Equal(t, time.Minute, cfg.RBAC.CacheTTL)

	assert.Equal(t, "access.log", cfg.Log.File.Access.Name)
	assert.True(t, cfg.Log.Console.Enabled)
}

func TestReadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	minimal := "[webserver]\nport = 9000\nurl = \"http://rbac.local\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(minimal), 0o600))

	cfg, err := ReadConfig(dir + string(filepath.Separator))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.GormEngine)
	assert.Equal(t, 4096, cfg.RBAC.CacheSize)
	assert.Equal(t, 5*time.Second, cfg.RBAC.StoreTimeout)
	assert.Equal(t, 5, cfg.Webserver.ShutDownTime)
	assert.Equal(t, "system", cfg.Seed.Actor)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir() + string(filepath.Separator))
	assert.Error(t, err)
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":"Test Override","Webserver":{"Port":9090},"RBAC":{"MaxLevel":20}}`)

	cfg, err := ReadConfig(projectConfigPath(t))
	require.NoError(t, err)

	assert.Equal(t, "Test Override", cfg.Title)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, 20, cfg.RBAC.MaxLevel)
	assert.Equal(t, 1, cfg.RBAC.MinLevel, "keys absent from the override keep their file value")
}

func TestReadConfigWithBrokenJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":`)

	_, err := ReadConfig(projectConfigPath(t))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		return Config{
			DB:        DB{GormEngine: "sqlite"},
			Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			RBAC:      RBAC{MinLevel: 1, MaxLevel: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Webserver.Port = 0 }, wantErr: ErrWebServerPortCanNotBeZero},
		{name: "missing URL", mutate: func(c *Config) { c.Webserver.URL = "" }, wantErr: ErrEmptyURL},
		{name: "unknown engine", mutate: func(c *Config) { c.DB.GormEngine = "oracle" }, wantErr: ErrUnknownEngine},
		{name: "inverted levels", mutate: func(c *Config) { c.RBAC.MinLevel = 11 }, wantErr: ErrLevelBounds},
		{name: "negative ttl", mutate: func(c *Config) { c.RBAC.CacheTTL = -time.Second }, wantErr: ErrNegativeDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, 5, cfg.Webserver.ShutDownTime)
				assert.Equal(t, "X-User-ID", cfg.Webserver.UserHeader)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:     "Test",
		DevMode:   true,
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
	}

	tomlStr, err := DumpConfig(&cfg)
	require.NoError(t, err)
	assert.True(t, strings.Contains(tomlStr, "title = 'Test'") || strings.Contains(tomlStr, `title = "Test"`), tomlStr)

	jsonStr, err := DumpConfigJSON(&cfg)
	require.NoError(t, err)
	assert.Contains(t, jsonStr, `"Title": "Test"`)
}
