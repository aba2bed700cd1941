package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, SessionsMemory, cfg.Sessions.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Sessions.DefaultTTL)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE_DRIVER=sqlite\nSESSION_TTL=15m\nAPI_KEYS=frontend:abc123,plainkey\n"), 0o644))
	t.Setenv("ENV_FILE", path)
	// the real environment wins over the file
	t.Setenv("SESSION_TTL", "30m")

	// godotenv sets process variables; restore them afterwards
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("API_KEYS")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.DefaultTTL)
	assert.Equal(t, map[string]string{"abc123": "frontend", "plainkey": "static-2"}, cfg.Auth.StaticKeys)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	_, err := Load()
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Storage:  StorageConfig{Driver: StorageFile, FilePath: "a.json"},
			Sessions: SessionsConfig{Driver: SessionsMemory},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = StoragePostgres }},
		{"unknown session store", func(c *Config) { c.Sessions.Driver = "etcd" }},
		{"redis without address", func(c *Config) { c.Sessions.Driver = SessionsRedis }},
		{"negative ttl", func(c *Config) { c.Sessions.DefaultTTL = -time.Second }},
		{"auth without keys", func(c *Config) { c.Auth.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LogConfig{Level: "debug"}.SlogLevel().String())
	assert.Equal(t, "WARN", LogConfig{Level: "WARNING"}.SlogLevel().String())
	assert.Equal(t, "INFO", LogConfig{Level: ""}.SlogLevel().String())
}
