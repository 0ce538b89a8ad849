package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/posters"
)

func init() {
	postersCmd := &cobra.Command{
		Use:   "posters",
		Short: "Download TMDb posters into the local cache",
		Long: `Downloads every size variant of each linked movie's TMDb poster into
<assets_dir>/posters/cache. Files younger than a week are kept.

Exits with status 2 when at least one download failed.`,
		RunE: runPosters,
	}
	postersCmd.Flags().Int("concurrency", 4, "Parallel movie downloads")
	rootCmd.AddCommand(postersCmd)
}

func runPosters(cmd *cobra.Command, _ []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	a, err := openApp(cmd.Context(), app.Options{RequireDB: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.TMDB.Configured() {
		return errors.New("tmdb is not configured (set TMDB_API_KEY or TMDB_READ_ACCESS_TOKEN)")
	}
	store, err := a.Store()
	if err != nil {
		return err
	}

	fetcher := posters.New(store, a.TMDB, a.Config.Server.AssetsDir,
		posters.WithLogger(a.Logger),
		posters.WithConcurrency(concurrency),
	)
	report, err := fetcher.Run(cmd.Context())
	if err != nil {
		return err
	}
	return finishPosters(cmd.OutOrStdout(), report)
}

func finishPosters(w io.Writer, r posters.Report) error {
	if jsonOutput {
		if err := printJSON(w, r); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "Downloaded: %d\n", r.Downloaded)
		fmt.Fprintf(w, "Skipped:    %d\n", r.Skipped)
		fmt.Fprintf(w, "Failed:     %d\n", r.Failed)
	}
	if r.Failed > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d poster downloads failed", r.Failed)}
	}
	return nil
}
