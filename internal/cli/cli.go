// Package cli implements the topostack command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topostack/pkg/buildinfo"
	"github.com/matzehuels/topostack/pkg/cache"
	"github.com/matzehuels/topostack/pkg/pipeline"
	"github.com/matzehuels/topostack/pkg/registry"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "topostack"

	// envRedisURL is read when --redis-url is not given.
	envRedisURL = "TOPOSTACK_REDIS_URL"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// registryPath is the --registry flag; empty means the built-in registry.
	registryPath string
	reg          *registry.Registry
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Topostack lays out network topologies in stacked 3D layers",
		Long: `Topostack turns CDP neighbor tables, FHRP groups and BGP sessions into a
positioned, layered view of a network. Device roles are inferred from
hostnames through a position registry; every device gets a layer, a lane
and a coordinate, and HA pairs are spread apart so both stay visible.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.registryPath, "registry", "", "position registry file (toml, yaml or json; default: built-in)")

	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.ingestCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// registry returns the registry selected by --registry, loading it once.
func (c *CLI) registry() (*registry.Registry, error) {
	if c.reg != nil {
		return c.reg, nil
	}
	if c.registryPath == "" {
		c.reg = registry.Default()
		return c.reg, nil
	}
	reg, err := registry.Load(c.registryPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("registry loaded", "path", c.registryPath, "summary", reg.Summary())
	c.reg = reg
	return reg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags are the cache flags shared by commands that run the pipeline.
type cacheFlags struct {
	noCache  bool
	redisURL string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", "", "use a Redis cache instead of the local one (env "+envRedisURL+")")
}

func (f cacheFlags) url() string {
	if f.redisURL != "" {
		return f.redisURL
	}
	return os.Getenv(envRedisURL)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags, keyer cache.Keyer) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, flags, c.Logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func newCache(ctx context.Context, flags cacheFlags, logger *log.Logger) (cache.Cache, error) {
	if flags.noCache {
		return cache.NewNullCache(), nil
	}
	if url := flags.url(); url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		logger.Debug("using redis cache")
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/topostack/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
