package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"budgetbully/internal/infrastructure/postgres/listener"
	"budgetbully/internal/shared/config"
	"budgetbully/internal/shared/logger"
)

var cfg *config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "admin",
		Short: "Management commands for the budgetbully sync service",
		Long: `Admin runs one-off maintenance against the budgetbully database:
applying the schema, syncing items by hand, asking a running API process
to sync, and unlinking items.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Init(cfg.Log.Level, "console")
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(),
		newSyncItemCmd(),
		newNotifySyncCmd(),
		newRemoveItemCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("Schema applied")
			return nil
		},
	}
}

func newSyncItemCmd() *cobra.Command {
	var (
		all     bool
		workers int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sync-item [item-id...]",
		Short: "Run a transaction sync for items in this process",
		Example: `  admin sync-item item-123
  admin sync-item item-123 item-456
  admin sync-item --all --workers=8 --timeout=1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == !all {
				return errors.New("pass either item ids or --all")
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", workers)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			deps, err := newAdminDeps(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			itemIDs := args
			if all {
				items, err := deps.items.ListSyncable(ctx)
				if err != nil {
					return err
				}
				itemIDs = make([]string, 0, len(items))
				for _, it := range items {
					itemIDs = append(itemIDs, it.ID)
				}
				log.Info().Int("items", len(itemIDs)).Msg("Found syncable items")
			}

			var failed atomic.Int32
			g := new(errgroup.Group)
			g.SetLimit(workers)
			for _, id := range itemIDs {
				g.Go(func() error {
					result, err := deps.syncService.UpdateTransactions(ctx, id)
					if err != nil {
						failed.Add(1)
						log.Error().Str("item_id", id).Err(err).Msg("Sync failed")
						return nil
					}
					if len(result.Errors) > 0 {
						log.Warn().Str("item_id", id).Strs("errors", result.Errors).Msg("Sync completed with errors")
					}
					return nil
				})
			}
			g.Wait()

			if n := failed.Load(); n > 0 {
				return fmt.Errorf("%d of %d item syncs failed", n, len(itemIDs))
			}
			log.Info().Int("items", len(itemIDs)).Msg("All item syncs completed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Sync every item that is not waiting on a re-login")
	cmd.Flags().IntVar(&workers, "workers", 4, "Number of items synced concurrently")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Timeout for the whole run")
	return cmd
}

func newNotifySyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-sync item-id...",
		Short: "Ask a running API process to sync items",
		Long: fmt.Sprintf(`Publishes {"item_id": ...} on the %q channel for each item.
The API's listener queues a sync job per notification.`, listener.ChannelSyncRequested),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			for _, id := range args {
				payload, err := json.Marshal(listener.SyncRequest{ItemID: id})
				if err != nil {
					return err
				}
				if err := db.Notify(cmd.Context(), listener.ChannelSyncRequested, string(payload)); err != nil {
					return err
				}
				log.Info().Str("item_id", id).Msg("Sync requested")
			}
			return nil
		},
	}
}

func newRemoveItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-item item-id",
		Short: "Unlink an item at the provider and delete it with its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newAdminDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			if err := deps.itemService.RemoveItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Str("item_id", args[0]).Msg("Item removed")
			return nil
		},
	}
}
