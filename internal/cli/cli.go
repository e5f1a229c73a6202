// Package cli implements the stagehand command-line interface.
//
// This package provides commands for resolving generated room layouts into
// valid scenes, inspecting anchor graphs, browsing model catalogs, and
// running the HTTP API. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - resolve: Turn a raw layout into a resolved scene
//   - graph: Visualize a layout's anchor graph as DOT or SVG
//   - catalog: Inspect a model catalog
//   - serve: Run the resolution HTTP API
//   - cache: Manage the resolution cache
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/pkg/buildinfo"
	"github.com/stagehand-dev/stagehand/pkg/cache"
	"github.com/stagehand-dev/stagehand/pkg/catalog"
	"github.com/stagehand-dev/stagehand/pkg/resolve"
)

// appName is the application name used for directories and display.
const appName = "stagehand"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "stagehand",
		Short:        "Stagehand resolves generated room layouts into valid scenes",
		Long:         `Stagehand is a deterministic constraint resolver for machine-generated 3D room layouts: it resolves anchor references, snaps positions to a grid, keeps objects inside the room, rests them on the floor, and pushes overlapping furniture apart.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")

	// Register all subcommands
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file named by --config, or the default
// location when the flag is unset.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// newRunner creates a resolution runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *resolve.Runner {
	var keyer cache.Keyer
	if c.Config.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(nil, c.Config.Cache.Scope)
	}
	return resolve.NewRunner(c.newCache(ctx, noCache), keyer, c.Logger)
}

// newCache builds the configured cache backend. Backend failures degrade
// to a null cache rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache || c.Config.Cache.Backend == config.CacheBackendNone {
		return cache.NewNullCache()
	}
	if c.Config.Cache.Backend == config.CacheBackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("redis unavailable, caching disabled", "addr", c.Config.Cache.RedisAddr, "err", err)
			return cache.NewNullCache()
		}
		return rc
	}
	fc, err := cache.NewFileCache(c.cacheDir())
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// newCatalog builds the configured catalog. catalogPath, when non-empty,
// overrides the config file (the --catalog flag). A missing catalog is not
// an error; resolution falls back to default footprints.
func (c *CLI) newCatalog(ctx context.Context, catalogPath string) (catalog.Catalog, func(), error) {
	noop := func() {}

	path := catalogPath
	if path == "" {
		path = c.Config.Catalog.Path
	}
	if path != "" {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return nil, noop, err
		}
		return cat, noop, nil
	}

	if uri := c.Config.Catalog.MongoURI; uri != "" {
		cat, client, err := catalog.Connect(ctx, uri, c.Config.Catalog.MongoDatabase, c.Config.Catalog.MongoCollection)
		if err != nil {
			return nil, noop, err
		}
		return cat, func() { _ = client.Disconnect(context.Background()) }, nil
	}

	return catalog.Empty, noop, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stagehand/).
func (c *CLI) cacheDir() string {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stagehand-cache"
	}
	return filepath.Join(home, ".cache", appName)
}

// resolveOptions builds engine options from the config file.
func (c *CLI) resolveOptions() resolve.Options {
	opts := c.Config.ResolveOptions()
	opts.Logger = c.Logger
	return opts
}
