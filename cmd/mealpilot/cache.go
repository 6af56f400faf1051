package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
	"github.com/ManuelReschke/MealPilot/internal/pkg/metrics/counter"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached results",
	}
	cmd.AddCommand(cacheStatsCmd(), cacheClearCmd())
	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show backend statistics and hit/miss counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			client := cache.NewClient(cfg.Cache)
			defer func() { _ = client.Close() }()

			ctx := cmd.Context()
			svc := cache.New(client, cache.Options{Prefix: cfg.Cache.Prefix, Timeout: cfg.Cache.Timeout}, logger)
			if err := svc.Ping(ctx); err != nil {
				return fmt.Errorf("cache unreachable: %w", err)
			}

			out, err := json.MarshalIndent(map[string]any{
				"stats":    svc.Stats(ctx),
				"counters": counter.New(client, counter.CacheCountersKey, logger).Snapshot(ctx),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached result in the namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			client := cache.NewClient(cfg.Cache)
			defer func() { _ = client.Close() }()

			ctx := cmd.Context()
			svc := cache.New(client, cache.Options{Prefix: cfg.Cache.Prefix, Timeout: cfg.Cache.Timeout}, logger)
			if err := svc.Ping(ctx); err != nil {
				return fmt.Errorf("cache unreachable: %w", err)
			}
			deleted := svc.Clear(ctx)
			counter.New(client, counter.CacheCountersKey, logger).Reset(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", deleted)
			return nil
		},
	}
}
