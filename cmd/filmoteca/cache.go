package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/cache"
)

func init() {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	forgetCmd := &cobra.Command{
		Use:   "forget <namespace> <key>",
		Short: "Delete one cached entry",
		Long:  "Deletes the entry stored under key in namespace (e.g. tmdb, ratelimit). Missing entries are not an error.",
		Args:  cobra.ExactArgs(2),
		RunE:  runCacheForget,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired entries",
		RunE:  runCachePrune,
	}

	cacheCmd.AddCommand(forgetCmd)
	cacheCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheForget(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Cache.Forget(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s/%s\n", args[0], args[1])
	return nil
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	pruner, ok := a.Cache.(cache.Pruner)
	if !ok {
		return errors.New("the " + a.Config.Cache.Driver + " cache expires entries on its own")
	}
	n, err := pruner.Prune(cmd.Context())
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired entries\n", n)
	return nil
}
