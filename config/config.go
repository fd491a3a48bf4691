package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvSecretKey   = "CASINO_SECRET_KEY"
	EnvDatabaseDSN = "CASINO_DATABASE_DSN"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Mode           string   `yaml:"mode"` // gin mode: debug, release or test
	TrustedProxies []string `yaml:"trusted_proxies"`
	// Rate limit applied per client IP to /token and /users/.
	LoginRatePerSec float64 `yaml:"login_rate_per_sec"`
	LoginBurst      int     `yaml:"login_burst"`
	ShutdownTimeout int     `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres, sqlite or memory
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"` // silent, error, warn, info
}

// AuthConfig holds token and credential settings.
type AuthConfig struct {
	SecretKey             string         `yaml:"secret_key"`
	Issuer                string         `yaml:"issuer"`
	AccessTokenTTLMinutes int            `yaml:"access_token_ttl_minutes"`
	AccessTokenTTL        time.Duration  `yaml:"-"`
	BcryptCost            int            `yaml:"bcrypt_cost"`
	BootstrapAdmin        BootstrapAdmin `yaml:"bootstrap_admin"`
}

// BootstrapAdmin describes an administrator created at startup if missing.
type BootstrapAdmin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Enabled reports whether a bootstrap admin is configured.
func (b BootstrapAdmin) Enabled() bool {
	return b.Username != "" && b.Password != ""
}

// LogConfig holds the application log settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvSecretKey); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		cfg.Database.DSN = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.LoginRatePerSec <= 0 {
		cfg.Server.LoginRatePerSec = 1
	}
	if cfg.Server.LoginBurst <= 0 {
		cfg.Server.LoginBurst = 5
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 5
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Auth.AccessTokenTTLMinutes <= 0 {
		cfg.Auth.AccessTokenTTLMinutes = 30
	}
	cfg.Auth.AccessTokenTTL = time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate reports configuration the process cannot start with.
func (cfg *Config) Validate() error {
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key must be set (or %s)", EnvSecretKey)
	}
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn must be set for the " + cfg.Database.Driver + " driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", cfg.Database.Driver)
	}
	return nil
}

// SlogLevel parses Log.Level, falling back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
