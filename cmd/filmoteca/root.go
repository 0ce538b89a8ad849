package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/logging"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "filmoteca",
	Short: "Admin CLI for the Filmoteca movie catalog",
	Long: `filmoteca - admin CLI for the Filmoteca movie catalog

Manages the database schema, refreshes metadata from TMDb, prefetches
poster images and inspects the catalog.

Run 'filmotecad' to start the HTTP server.`,
	SilenceUsage: true,
}

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("filmoteca {{.Version}}\n")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filmoteca %s\n", version)
		},
	})
}

// loadConfig resolves --config (or discovery) and loads the file.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}
	cfg, err := config.Load(path)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.WriteReport(os.Stderr)
		}
		return nil, err
	}
	return cfg, nil
}

// openApp loads the config and opens the shared components. Logs go to
// stderr so that --json output stays clean.
func openApp(ctx context.Context, opts app.Options) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.Server.LogLevel, cfg.Server.LogFormat)
	return app.Open(ctx, cfg, logger, opts)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
