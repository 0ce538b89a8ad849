package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/catalog"
)

func init() {
	moviesCmd := &cobra.Command{
		Use:   "movies",
		Short: "Inspect the catalog",
		Long:  "Read-only views of the catalog, served from the database or the built-in dataset.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List movies (year desc, title)",
		RunE:  runMoviesList,
	}
	listCmd.Flags().StringP("search", "q", "", "Substring of title or summary")
	listCmd.Flags().StringP("genre", "g", "", "Genre")
	listCmd.Flags().IntP("year", "y", 0, "Release year")
	listCmd.Flags().IntP("page", "p", 1, "Page number")
	listCmd.Flags().Int("per-page", catalog.DefaultPerPage, "Movies per page")

	showCmd := &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Show one movie",
		Args:  cobra.ExactArgs(1),
		RunE:  runMoviesShow,
	}

	genresCmd := &cobra.Command{
		Use:   "genres",
		Short: "List distinct genres",
		RunE:  runMoviesGenres,
	}

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently added movies",
		RunE:  runMoviesRecent,
	}
	recentCmd.Flags().IntP("limit", "l", 5, "Number of movies")

	moviesCmd.AddCommand(listCmd)
	moviesCmd.AddCommand(showCmd)
	moviesCmd.AddCommand(genresCmd)
	moviesCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(moviesCmd)
}

func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, svc *catalog.Service) error) error {
	a, err := openApp(cmd.Context(), app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a.Catalog)
}

func runMoviesList(cmd *cobra.Command, _ []string) error {
	search, _ := cmd.Flags().GetString("search")
	genre, _ := cmd.Flags().GetString("genre")
	year, _ := cmd.Flags().GetInt("year")
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")

	f := catalog.Filter{Search: search, Genre: genre, Year: year}
	return withCatalog(cmd, func(ctx context.Context, svc *catalog.Service) error {
		return listMovies(ctx, cmd.OutOrStdout(), svc, f, page, perPage)
	})
}

func listMovies(ctx context.Context, w io.Writer, svc *catalog.Service, f catalog.Filter, page, perPage int) error {
	page, perPage = catalog.ClampPage(page, perPage)
	l, err := svc.List(ctx, f.Normalize(), page, perPage)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, l)
	}
	if len(l.Data) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return nil
	}
	printMovieTable(w, l.Data)
	fmt.Fprintf(w, "\n  Page %d of %d (%d movies)\n", l.Meta.Page, max(1, l.Meta.TotalPages), l.Meta.Total)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printMovieTable(w io.Writer, entries []*catalog.Entry) {
	fmt.Fprintf(w, "  %-4s %-40s %-6s %-18s %s\n", "ID", "TITLE", "YEAR", "GENRE", "RATING")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 80))
	for _, e := range entries {
		rating := "-"
		if e.Rating != nil {
			rating = strconv.FormatFloat(*e.Rating, 'f', 1, 64)
		}
		fmt.Fprintf(w, "  %-4d %-40s %-6d %-18s %s\n",
			e.ID, truncate(e.Title, 40), e.Year, truncate(e.Genre, 18), rating)
	}
}

func runMoviesShow(cmd *cobra.Command, args []string) error {
	return withCatalog(cmd, func(ctx context.Context, svc *catalog.Service) error {
		return showMovie(ctx, cmd.OutOrStdout(), svc, args[0])
	})
}

// showMovie looks the argument up as an id when it is a positive integer
// and as a slug otherwise.
func showMovie(ctx context.Context, w io.Writer, svc *catalog.Service, ref string) error {
	var (
		e   *catalog.Entry
		err error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil && id > 0 {
		e, err = svc.Get(ctx, id)
	} else {
		e, err = svc.GetBySlug(ctx, ref)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("movie %q not found", ref)
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, e)
	}
	printMovie(w, e)
	return nil
}

func printMovie(w io.Writer, e *catalog.Entry) {
	fmt.Fprintf(w, "%s (%d)\n", e.Title, e.Year)
	fmt.Fprintf(w, "  ID:       %d\n", e.ID)
	fmt.Fprintf(w, "  Slug:     %s\n", e.Slug)
	if e.TMDBID != nil {
		fmt.Fprintf(w, "  TMDb:     %d\n", *e.TMDBID)
	}
	fmt.Fprintf(w, "  Genres:   %s\n", strings.Join(e.Genres, ", "))
	if e.Director != "" {
		fmt.Fprintf(w, "  Director: %s\n", e.Director)
	}
	if len(e.Cast) > 0 {
		fmt.Fprintf(w, "  Cast:     %s\n", strings.Join(e.Cast, ", "))
	}
	if e.Duration != nil {
		fmt.Fprintf(w, "  Duration: %d min\n", *e.Duration)
	}
	if e.Rating != nil {
		count := 0
		if e.RatingCount != nil {
			count = *e.RatingCount
		}
		fmt.Fprintf(w, "  Rating:   %.1f (%d votes)\n", *e.Rating, count)
	}
	if e.Poster.URL != nil {
		fmt.Fprintf(w, "  Poster:   %s\n", *e.Poster.URL)
	}
	if e.Summary != "" {
		fmt.Fprintf(w, "\n  %s\n", e.Summary)
	}
}

func runMoviesGenres(cmd *cobra.Command, _ []string) error {
	return withCatalog(cmd, func(ctx context.Context, svc *catalog.Service) error {
		genres, err := svc.Genres(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(w, genres)
		}
		for _, g := range genres {
			fmt.Fprintln(w, g)
		}
		return nil
	})
}

func runMoviesRecent(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return withCatalog(cmd, func(ctx context.Context, svc *catalog.Service) error {
		entries, err := svc.Recent(ctx, max(1, limit))
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(w, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "No movies found.")
			return nil
		}
		printMovieTable(w, entries)
		return nil
	})
}
