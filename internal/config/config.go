package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/claude/formcoach/internal/exercise"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Log       LogConfig       `yaml:"log"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type StorageConfig struct {
	Driver              string  `yaml:"driver"`
	SQLitePath          string  `yaml:"sqlite_path"`
	MigrationsPath      string  `yaml:"migrations_path"`
	DefaultBodyWeightKg float64 `yaml:"default_body_weight_kg"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type SessionsConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	ReapInterval  time.Duration `yaml:"reap_interval"`
	RestartPolicy string        `yaml:"restart_policy"`
}

type CatalogConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	CacheSizeMB int           `yaml:"cache_size_mb"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type EngineConfig struct {
	Thresholds exercise.Thresholds `yaml:"thresholds"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// NewLogger builds the process logger from the log section.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// defaults returns a Config with every optional field filled in. The
// YAML file is decoded on top of it, so thresholds that are not
// overridden keep their defaults.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Storage: StorageConfig{
			Driver:              DriverSQLite,
			SQLitePath:          "data/formcoach.db",
			MigrationsPath:      "migrations",
			DefaultBodyWeightKg: 70,
		},
		Tailscale: TailscaleConfig{Hostname: "formcoach", StateDir: "tsnet-state"},
		Sessions: SessionsConfig{
			IdleTimeout:   10 * time.Minute,
			ReapInterval:  time.Minute,
			RestartPolicy: "replace",
		},
		Catalog: CatalogConfig{CacheTTL: 5 * time.Minute, CacheSizeMB: 1},
		Log:     LogConfig{Level: "info", Format: "text"},
		Engine:  EngineConfig{Thresholds: exercise.DefaultThresholds()},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix FORMCOACH_ and underscore-separated paths:
//
//	FORMCOACH_SERVER_HOST, FORMCOACH_SERVER_PORT,
//	FORMCOACH_DB_HOST, FORMCOACH_DB_PORT, FORMCOACH_DB_NAME,
//	FORMCOACH_DB_USER, FORMCOACH_DB_PASSWORD, FORMCOACH_DB_SSLMODE,
//	FORMCOACH_STORAGE_DRIVER, FORMCOACH_STORAGE_SQLITE_PATH,
//	FORMCOACH_AUTH_API_KEY, FORMCOACH_TAILSCALE_ENABLED,
//	FORMCOACH_SESSIONS_IDLE_TIMEOUT, FORMCOACH_SESSIONS_RESTART_POLICY,
//	FORMCOACH_LOG_LEVEL, FORMCOACH_LOG_FORMAT
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("FORMCOACH_SERVER_HOST", &cfg.Server.Host)
	num("FORMCOACH_SERVER_PORT", &cfg.Server.Port)
	str("FORMCOACH_DB_HOST", &cfg.Database.Host)
	num("FORMCOACH_DB_PORT", &cfg.Database.Port)
	str("FORMCOACH_DB_NAME", &cfg.Database.Name)
	str("FORMCOACH_DB_USER", &cfg.Database.User)
	str("FORMCOACH_DB_PASSWORD", &cfg.Database.Password)
	str("FORMCOACH_DB_SSLMODE", &cfg.Database.SSLMode)
	str("FORMCOACH_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("FORMCOACH_STORAGE_SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("FORMCOACH_AUTH_API_KEY", &cfg.Auth.APIKey)
	str("FORMCOACH_SESSIONS_RESTART_POLICY", &cfg.Sessions.RestartPolicy)
	str("FORMCOACH_LOG_LEVEL", &cfg.Log.Level)
	str("FORMCOACH_LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("FORMCOACH_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("FORMCOACH_SESSIONS_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.IdleTimeout = d
		}
	}
}

func (c *Config) validate() (err error) {
	if c.Server.Port == 0 {
		err = multierr.Append(err, fmt.Errorf("server.port is required"))
	}
	if c.Auth.APIKey == "" {
		err = multierr.Append(err, fmt.Errorf("auth.api_key is required"))
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			err = multierr.Append(err, fmt.Errorf("database.host is required"))
		}
		if c.Database.Port == 0 {
			err = multierr.Append(err, fmt.Errorf("database.port is required"))
		}
		if c.Database.Name == "" {
			err = multierr.Append(err, fmt.Errorf("database.name is required"))
		}
		if c.Database.User == "" {
			err = multierr.Append(err, fmt.Errorf("database.user is required"))
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			err = multierr.Append(err, fmt.Errorf("storage.sqlite_path is required"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Storage.Driver))
	}
	if c.Storage.DefaultBodyWeightKg <= 0 {
		err = multierr.Append(err, fmt.Errorf("storage.default_body_weight_kg must be positive"))
	}

	if c.Sessions.IdleTimeout <= 0 || c.Sessions.ReapInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("sessions.idle_timeout and sessions.reap_interval must be positive"))
	}
	switch c.Sessions.RestartPolicy {
	case "replace", "reject":
	default:
		err = multierr.Append(err, fmt.Errorf("sessions.restart_policy must be replace or reject, got %q", c.Sessions.RestartPolicy))
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		err = multierr.Append(err, fmt.Errorf("tailscale.hostname is required when tailscale is enabled"))
	}

	if terr := c.Engine.Thresholds.Validate(); terr != nil {
		err = multierr.Append(err, fmt.Errorf("engine.thresholds: %w", terr))
	}
	return err
}
