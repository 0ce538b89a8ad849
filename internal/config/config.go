// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Cache drivers.
const (
	CacheFile   = "file"
	CacheBolt   = "bolt"
	CacheRedis  = "redis"
	CacheSQL    = "sql"
	CacheMemory = "memory"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	TMDB      TMDBConfig      `toml:"tmdb"`
	Cache     CacheConfig     `toml:"cache"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // text, json, pretty
	AppURL    string `toml:"app_url"`
	AssetsDir string `toml:"assets_dir"`
}

// DatabaseConfig selects the relational backend. Leaving it empty is valid:
// the catalog then serves the built-in seed dataset from memory.
type DatabaseConfig struct {
	Driver   string `toml:"driver"` // sqlite, postgres, or empty to infer
	Path     string `toml:"path"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Name     string `toml:"name"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"sslmode"`
}

type TMDBConfig struct {
	APIKey          string        `toml:"api_key"`
	ReadToken       string        `toml:"read_token"`
	CacheTTL        time.Duration `toml:"cache_ttl"`
	UseRemoteImages *bool         `toml:"use_remote_images"`
	BaseURL         string        `toml:"base_url"`
}

type CacheConfig struct {
	Driver   string `toml:"driver"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

type RateLimitConfig struct {
	Enabled    *bool         `toml:"enabled"`
	Max        int           `toml:"max"`
	Window     time.Duration `toml:"window"`
	TrustProxy bool          `toml:"trust_proxy"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Mode reports which relational driver is configured, or "" when the
// in-memory catalog should be used.
func (d DatabaseConfig) Mode() string {
	switch strings.ToLower(d.Driver) {
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	case DriverPostgres, "postgresql", "pgx":
		return DriverPostgres
	}
	if d.Host != "" && d.Name != "" && d.User != "" {
		return DriverPostgres
	}
	if d.Path != "" {
		return DriverSQLite
	}
	return ""
}

// RemoteImages reports whether TMDb hosted posters may be used when no
// local copy exists. Defaults to true.
func (t TMDBConfig) RemoteImages() bool {
	return t.UseRemoteImages == nil || *t.UseRemoteImages
}

// Configured reports whether any TMDb credential is present.
func (t TMDBConfig) Configured() bool {
	return t.APIKey != "" || t.ReadToken != ""
}

// IsEnabled reports whether the API rate limiter is on. Defaults to true.
func (r RateLimitConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Load reads, parses and validates the configuration file.
// An empty path loads defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration without running Validate.
func LoadWithoutValidation(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			content, missing := substituteEnvVars(string(data))
			if len(missing) > 0 {
				return nil, &ConfigError{Path: path, Missing: missing}
			}
			if _, err := toml.Decode(content, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = "text"
	}
	if c.Server.AppURL == "" {
		c.Server.AppURL = "http://localhost"
	}
	c.Server.AppURL = strings.TrimRight(c.Server.AppURL, "/")
	if c.Server.AssetsDir == "" {
		c.Server.AssetsDir = "./public"
	}
	if c.Database.Mode() == DriverPostgres {
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.TMDB.CacheTTL == 0 {
		c.TMDB.CacheTTL = 24 * time.Hour
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheFile
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "./cache"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "filmoteca:"
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 120
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Returns the substituted content and the names of unresolved variables.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)

	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		hasDefault := strings.Contains(match, ":-")

		if value, ok := os.LookupEnv(name); ok && (value != "" || !hasDefault) {
			return value
		}
		if hasDefault {
			return groups[2]
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match // Leave unchanged if not found
	})
	return out, missing
}
