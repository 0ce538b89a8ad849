package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/enrich"
)

const sinceLayout = "2006-01-02"

func init() {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh movie metadata from TMDb",
		Long: `Fetches details, credits and ratings for linked movies, most recently
updated first. In delta mode only movies updated on or after --since are
visited; without --since delta behaves like full. --link first tries to resolve movies without a TMDb id by title
and year.

Exits with status 2 when at least one movie failed.`,
		RunE: runSync,
	}
	syncCmd.Flags().String("mode", "full", "Sync mode: full or delta")
	syncCmd.Flags().Int("limit", enrich.DefaultLimit, "Maximum number of movies to visit")
	syncCmd.Flags().String("since", "", "Delta mode cut-off (YYYY-MM-DD)")
	syncCmd.Flags().Bool("link", false, "Link movies without a TMDb id first")
	rootCmd.AddCommand(syncCmd)
}

// parseSince reads a YYYY-MM-DD date as midnight UTC. Empty means no cut-off.
func parseSince(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(sinceLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	limit, _ := cmd.Flags().GetInt("limit")
	sinceFlag, _ := cmd.Flags().GetString("since")
	link, _ := cmd.Flags().GetBool("link")

	mode, err := enrich.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	since, err := parseSince(sinceFlag)
	if err != nil {
		return err
	}

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

	syncer := enrich.NewSyncer(store, a.TMDB, a.Logger)
	report, err := syncer.Run(cmd.Context(), enrich.Options{
		Mode:  mode,
		Limit: limit,
		Since: since,
		Link:  link,
	})
	if err != nil {
		return err
	}
	return finishSync(cmd.OutOrStdout(), report, link)
}

func finishSync(w io.Writer, report enrich.Report, link bool) error {
	if jsonOutput {
		if err := printJSON(w, report); err != nil {
			return err
		}
	} else {
		printSyncReport(w, report, link)
	}
	if report.Failed > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d movies failed to sync", report.Failed)}
	}
	return nil
}

func printSyncReport(w io.Writer, r enrich.Report, link bool) {
	if link {
		fmt.Fprintf(w, "Linked:    %d\n", r.Linked)
		fmt.Fprintf(w, "Unmatched: %d\n", r.Unmatched)
	}
	fmt.Fprintf(w, "Synced:    %d\n", r.Synced)
	fmt.Fprintf(w, "Failed:    %d\n", r.Failed)
}
