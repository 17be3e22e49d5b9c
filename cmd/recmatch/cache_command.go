package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"recmatch/internal/cachestore"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the outcome cache",
	}
	cmd.AddCommand(newCacheStatsCommand(ctx))
	cmd.AddCommand(newCachePruneCommand(ctx))
	cmd.AddCommand(newCacheClearCommand(ctx))
	return cmd
}

// withCacheStore opens the durable store under the process lock and hands
// it to fn.
func withCacheStore(ctx *commandContext, fn func(*cachestore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		return errors.New("outcome cache is disabled in configuration")
	}

	lock := flock.New(cfg.Cache.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return errors.New("another recmatch process is using the outcome cache")
	}
	defer lock.Unlock()

	store, err := cachestore.Open(cfg.Cache.Path, cachestore.WithMaxEntries(cfg.Cache.MaxEntries))
	if err != nil {
		return fmt.Errorf("open outcome cache: %w", err)
	}
	defer store.Close()

	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show outcome cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(ctx, func(store *cachestore.Store) error {
				count, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				cfg, _ := ctx.ensureConfig()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Property", "Value"},
					[][]string{
						{"Path", store.Path()},
						{"Entries", fmt.Sprintf("%d", count)},
						{"Quota", formatQuota(cfg.Cache.MaxEntries)},
					},
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func formatQuota(maxEntries int) string {
	if maxEntries <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", maxEntries)
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries from the outcome cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(ctx, func(store *cachestore.Store) error {
				removed, err := store.PruneExpired(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry in the outcome cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("cache clear removes all cached outcomes; re-run with --force to confirm")
			}
			return withCacheStore(ctx, func(store *cachestore.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "outcome cache cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")
	return cmd
}
