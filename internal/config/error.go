package config

import (
	"fmt"
	"io"
	"strings"
)

// ConfigError collects everything wrong with a config file so that a
// single start-up attempt reports all of it.
type ConfigError struct {
	Path    string
	Missing []string // ${VAR} references with no value
	Errors  []string // Validate findings
}

// Error is a one-line summary; WriteReport has the details.
func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}
	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "config %s: ", e.Path)
	}
	var sep string
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "missing environment variables: %s", strings.Join(e.Missing, ", "))
		sep = "; "
	}
	if len(e.Errors) > 0 {
		fmt.Fprintf(&b, "%s%s", sep, strings.Join(e.Errors, "; "))
	}
	return b.String()
}

// HasErrors reports whether anything was collected.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}

// WriteReport prints one finding per line, grouped by kind.
func (e *ConfigError) WriteReport(w io.Writer) {
	if e.Path != "" {
		fmt.Fprintf(w, "Config %s is invalid.\n", e.Path)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintln(w, "Missing environment variables:")
		for _, name := range e.Missing {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	if len(e.Errors) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, msg := range e.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}
