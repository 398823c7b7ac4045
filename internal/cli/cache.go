package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/internal/config"
	"github.com/matzehuels/hierbundle/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and artifact cache",
	}

	cmd.PersistentFlags().String("cache-backend", "", "cache backend: file, redis, none (default from config)")
	cmd.PersistentFlags().String("redis-addr", "", "redis address for the redis backend")

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := c.openCache(cmd.Context(), cfg, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache backend %q keeps nothing to clear", cfg.Cache.Backend)
				return nil
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("%s", cacheLocation(cfg, store))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached entries are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.BackendFile {
				dir := cfg.Cache.Dir
				if dir == "" {
					if dir, err = cacheDir(); err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(cfg, nil))
			return nil
		},
	}
}

// cacheLocation describes where store keeps its entries.
func cacheLocation(cfg *config.Config, store cache.Cache) string {
	if fc, ok := store.(*cache.FileCache); ok {
		return "Directory: " + fc.Dir()
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s (prefix %q)", cfg.Cache.RedisAddr, cfg.Cache.Prefix)
	case config.BackendNone:
		return "caching disabled"
	}
	return cfg.Cache.Backend
}
