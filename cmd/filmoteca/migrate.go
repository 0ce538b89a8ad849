package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/catalog"
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Applies the schema to the configured database. Every statement is
idempotent. With --seed the five reference movies are upserted as well.`,
		RunE: runMigrate,
	}
	migrateCmd.Flags().Bool("seed", false, "Upsert the reference movies after migrating")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	seed, _ := cmd.Flags().GetBool("seed")

	// app.Open migrates on connect.
	a, err := openApp(cmd.Context(), app.Options{RequireDB: true})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Schema up to date (%s)\n", a.DB.Dialect)
	if !seed {
		return nil
	}

	store, err := a.Store()
	if err != nil {
		return err
	}
	movies := catalog.SeedMovies()
	if err := store.Seed(cmd.Context(), movies); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(out, "Seeded %d movies\n", len(movies))
	return nil
}
