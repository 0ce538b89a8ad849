package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv loads FILMOTECA_ENV_FILE (or ./.env) into the process
// environment. Variables that are already set are left untouched.
func loadDotEnv() error {
	path := os.Getenv("FILMOTECA_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnv overlays the plain environment variables the deployment has
// always used on top of the file configuration.
func (c *Config) applyEnv() error {
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASS")
	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}

	setString(&c.TMDB.APIKey, "TMDB_API_KEY")
	setString(&c.TMDB.ReadToken, "TMDB_READ_ACCESS_TOKEN")
	if v, ok := lookup("TMDB_CACHE_TTL"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TMDB_CACHE_TTL: %w", err)
		}
		c.TMDB.CacheTTL = time.Duration(secs) * time.Second
	}
	if v, ok := lookup("TMDB_USE_REMOTE_IMAGES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TMDB_USE_REMOTE_IMAGES: %w", err)
		}
		c.TMDB.UseRemoteImages = &b
	}

	setString(&c.Server.AppURL, "APP_URL")
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}
