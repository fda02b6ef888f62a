// Package config handles application configuration loading from environment
// variables and an optional YAML file. It provides a centralized Config
// struct used across the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendValkey   = "valkey"
	BackendMemory   = "memory"
)

const (
	defaultDBPassword    = "changeme"
	defaultAdminPassword = "admin123"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string `mapstructure:"app_host"`
	Port string `mapstructure:"app_port"`
	Env  string `mapstructure:"app_env"` // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string `mapstructure:"postgres_host"`
	DBPort     string `mapstructure:"postgres_port"`
	DBUser     string `mapstructure:"postgres_user"`
	DBPassword string `mapstructure:"postgres_password"`
	DBName     string `mapstructure:"postgres_db"`

	// Valkey (sessions, page cache, optional collection backend)
	ValkeyHost     string `mapstructure:"valkey_host"`
	ValkeyPort     string `mapstructure:"valkey_port"`
	ValkeyPassword string `mapstructure:"valkey_password"`
	ValkeyDB       int    `mapstructure:"valkey_db"`

	// StoreBackend selects where collections live: postgres, valkey or memory.
	StoreBackend string `mapstructure:"store_backend"`

	// Main admin and the static demo login.
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminName     string `mapstructure:"admin_name"`

	SiteName       string        `mapstructure:"site_name"`
	ChatReplyDelay time.Duration `mapstructure:"chat_reply_delay"`
	CORSOrigins    []string      `mapstructure:"cors_origin"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	PageCacheTTL   time.Duration `mapstructure:"page_cache_ttl"`
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a reverse proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`

	// S3-compatible storage for uploaded post images (optional).
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3Region    string `mapstructure:"s3_region"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3PublicURL string `mapstructure:"s3_public_url"`
}

var defaults = map[string]any{
	"app_host": "0.0.0.0",
	"app_port": "8080",
	"app_env":  "development",

	"postgres_host":     "localhost",
	"postgres_port":     "5432",
	"postgres_user":     "ecotrack",
	"postgres_password": defaultDBPassword,
	"postgres_db":       "ecotrack",

	"valkey_host":     "localhost",
	"valkey_port":     "6379",
	"valkey_password": "",
	"valkey_db":       0,

	"store_backend": BackendPostgres,

	"admin_username": "admin",
	"admin_password": defaultAdminPassword,
	"admin_email":    "admin@ecotrack.local",
	"admin_name":     "Main Admin",

	"site_name":        "EcoTrack",
	"chat_reply_delay": "1s",
	"cors_origin":      []string{"*"},
	"session_ttl":      "24h",
	"page_cache_ttl":   "5m",
	"trust_proxy":      false,

	"s3_endpoint":   "",
	"s3_region":     "us-east-1",
	"s3_access_key": "",
	"s3_secret_key": "",
	"s3_bucket":     "",
	"s3_public_url": "",
}

// Load reads configuration from environment variables, falling back to
// configFile (YAML, optional) and then to development defaults. Returns an
// error if critical values are left at their defaults in production mode.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendValkey, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of postgres, valkey, memory (got %q)", c.StoreBackend)
	}
	if c.ChatReplyDelay < 0 {
		return errors.New("CHAT_REPLY_DELAY must not be negative")
	}

	if c.Env == "production" {
		if c.StoreBackend == BackendPostgres && c.DBPassword == defaultDBPassword {
			return errors.New("POSTGRES_PASSWORD must be set in production")
		}
		if c.AdminPassword == defaultAdminPassword {
			return errors.New("ADMIN_PASSWORD must be changed in production")
		}
		if c.StoreBackend == BackendMemory {
			return errors.New("STORE_BACKEND=memory is not allowed in production")
		}
	}
	return nil
}

// splitOrigins accepts CORS_ORIGIN as a comma-separated env value or a YAML list.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// NeedsValkey reports whether the configuration requires a Valkey
// connection at startup. Sessions fall back to memory only with the memory
// store backend.
func (c *Config) NeedsValkey() bool {
	return c.StoreBackend != BackendMemory
}
