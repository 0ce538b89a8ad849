// internal/config/discover.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "filmoteca", "config.toml")
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. FILMOTECA_CONFIG environment variable
//  2. ./config.toml (current directory)
//  3. $XDG_CONFIG_HOME/filmoteca/config.toml
//  4. /etc/filmoteca/config.toml
//
// Returns "" with a nil error when no file exists: the service then runs
// on defaults and environment variables alone.
func Discover() (string, error) {
	if envPath := os.Getenv("FILMOTECA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("FILMOTECA_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./config.toml",
		DefaultPath(),
		"/etc/filmoteca/config.toml",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}
