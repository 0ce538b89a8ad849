// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true, "pretty": true, "": true,
}

var validCacheDrivers = map[string]bool{
	CacheFile: true, CacheBolt: true, CacheRedis: true, CacheSQL: true, CacheMemory: true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if !validLogFormats[c.Server.LogFormat] {
		errs = append(errs, fmt.Sprintf("server.log_format: must be one of text, json, pretty; got %q", c.Server.LogFormat))
	}
	if c.Server.AppURL != "" {
		u, err := url.Parse(c.Server.AppURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("server.app_url: must be an absolute URL, got %q", c.Server.AppURL))
		}
	}

	// Database validation
	switch c.Database.Driver {
	case "", DriverSQLite, "sqlite3", DriverPostgres, "postgresql", "pgx":
	default:
		errs = append(errs, fmt.Sprintf("database.driver: must be sqlite or postgres; got %q", c.Database.Driver))
	}
	switch c.Database.Mode() {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path: required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			errs = append(errs, "database: host, name and user are required for postgres")
		}
	}

	// Cache validation
	if !validCacheDrivers[c.Cache.Driver] {
		errs = append(errs, fmt.Sprintf("cache.driver: must be one of file, bolt, redis, sql, memory; got %q", c.Cache.Driver))
	}
	if c.Cache.Driver == CacheRedis && c.Cache.RedisURL == "" {
		errs = append(errs, "cache.redis_url: required when cache.driver is redis")
	}
	if c.Cache.Driver == CacheSQL && c.Database.Mode() == "" {
		errs = append(errs, "cache.driver: sql requires a configured database")
	}

	// TMDB validation
	if c.TMDB.CacheTTL < 0 {
		errs = append(errs, "tmdb.cache_ttl: must not be negative")
	}

	// Rate limit validation
	if c.RateLimit.Max < 0 {
		errs = append(errs, fmt.Sprintf("ratelimit.max: must be positive, got %d", c.RateLimit.Max))
	}
	if c.RateLimit.Window < 0 {
		errs = append(errs, "ratelimit.window: must not be negative")
	}

	return errs
}

// Warnings returns non-fatal findings worth logging at startup.
func (c *Config) Warnings() []string {
	var warns []string
	if c.Server.AssetsDir != "" {
		if _, err := os.Stat(c.Server.AssetsDir); os.IsNotExist(err) {
			warns = append(warns, fmt.Sprintf("server.assets_dir: directory %q does not exist", c.Server.AssetsDir))
		}
	}
	if !c.TMDB.Configured() {
		warns = append(warns, "tmdb: no api_key or read_token, enrichment disabled")
	}
	return warns
}
