package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topostack/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var flags cacheFlags

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts and artifacts",
		Long: `Remove all cached layouts and artifacts from the local cache directory.
With --redis-url, entries in the Redis namespace are removed as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			ctx := cmd.Context()

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(w, "Local cache is empty")
			} else {
				fc, err := cache.NewFileCache(dir)
				if err != nil {
					return err
				}
				n, err := fc.Clear(ctx)
				if err != nil {
					return fmt.Errorf("clear %s: %w", dir, err)
				}
				printSuccess(w, "Cleared %d cached entries", n)
				printDetail(w, "Directory: %s", dir)
			}

			if url := flags.url(); url != "" {
				rc, err := cache.NewRedisCache(ctx, url)
				if err != nil {
					return err
				}
				defer rc.Close()
				n, err := rc.Clear(ctx)
				if err != nil {
					return fmt.Errorf("clear redis cache: %w", err)
				}
				printSuccess(w, "Cleared %d Redis entries", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.redisURL, "redis-url", "", "also clear this Redis cache (env "+envRedisURL+")")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
