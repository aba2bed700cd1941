package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers for assessment history
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageFile     = "file"
)

// Session store drivers
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// Config holds all configuration for circular-readiness
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Sessions SessionsConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Cleanup  CleanupConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// StorageConfig selects and configures the history repository
type StorageConfig struct {
	Driver        string
	DSN           string // postgres
	SQLitePath    string
	FilePath      string
	MigrationsDir string // empty uses the built-in migrations
	AutoMigrate   bool
	MaxOpenConns  int
	MaxIdleConns  int
}

// SessionsConfig holds session lifetime settings
type SessionsConfig struct {
	Driver     string
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// CatalogConfig holds question catalog configuration
type CatalogConfig struct {
	Dir string // empty uses the embedded reference catalog
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration
}

// AuthConfig holds API key authentication settings
type AuthConfig struct {
	Enabled bool
	// StaticKeys maps API keys to client names; static clients get every permission
	StaticKeys map[string]string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file (ENV_FILE, default ".env") and then the environment
func Load() (*Config, error) {
	return LoadWithEnvFile(getEnv("ENV_FILE", ".env"))
}

// LoadWithEnvFile is Load with an explicit env file; empty skips the file
func LoadWithEnvFile(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", StorageFile),
			DSN:           getEnv("DATABASE_DSN", ""),
			SQLitePath:    getEnv("SQLITE_PATH", "./data/history.db"),
			FilePath:      getEnv("HISTORY_FILE", "./assessments.json"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", ""),
			AutoMigrate:   getEnvAsBool("AUTO_MIGRATE", true),
			MaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:  getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		},
		Sessions: SessionsConfig{
			Driver:     getEnv("SESSION_STORE", SessionsMemory),
			DefaultTTL: getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			MaxTTL:     getEnvAsDuration("SESSION_MAX_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Address:   getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "circular:session:"),
		},
		Catalog: CatalogConfig{
			Dir: getEnv("CATALOG_DIR", ""),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
		Auth: AuthConfig{
			Enabled:    getEnvAsBool("AUTH_ENABLED", false),
			StaticKeys: getEnvAsKeyMap("API_KEYS"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from path without overriding the environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("loaded env file", "path", path)
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("database DSN is required for storage driver %q", c.Storage.Driver)
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case StorageFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("history file path is required")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}

	switch c.Sessions.Driver {
	case SessionsMemory:
	case SessionsRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for session store %q", c.Sessions.Driver)
		}
	default:
		return fmt.Errorf("unknown session store: %q", c.Sessions.Driver)
	}

	if c.Sessions.DefaultTTL < 0 || c.Sessions.MaxTTL < 0 {
		return fmt.Errorf("session TTL must not be negative")
	}

	if c.Auth.Enabled && len(c.Auth.StaticKeys) == 0 && c.Storage.Driver == StorageFile {
		return fmt.Errorf("auth is enabled but no API_KEYS are configured and the file storage has no client table")
	}

	return nil
}

// SlogLevel maps the configured level name to a slog level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsKeyMap parses "name:key,name2:key2"; a bare key is named after its position
func getEnvAsKeyMap(key string) map[string]string {
	keys := make(map[string]string)
	for i, entry := range getEnvAsList(key, nil) {
		name, apiKey, ok := strings.Cut(entry, ":")
		if !ok {
			name, apiKey = fmt.Sprintf("static-%d", i+1), entry
		}
		if apiKey != "" {
			keys[apiKey] = name
		}
	}
	return keys
}
