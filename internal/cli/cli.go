// Package cli implements the pkgdocs command-line interface.
//
// This package provides commands for looking up npm package documentation,
// running the HTTP API server, and managing the documentation cache. The CLI
// is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - lookup: Fetch documentation for a package, cache-first
//   - serve: Run the HTTP API server
//   - cache: Inspect and manage the documentation cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgdocs/pkg/buildinfo"
	"github.com/matzehuels/pkgdocs/pkg/config"
	"github.com/matzehuels/pkgdocs/pkg/docs"
	"github.com/matzehuels/pkgdocs/pkg/docstore"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
	"github.com/matzehuels/pkgdocs/pkg/fetcher"
	"github.com/matzehuels/pkgdocs/pkg/registry"
)

// appName is the application name used for directories and display.
const appName = "pkgdocs"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// docService is the slice of fetcher.Service the commands need. Tests swap
// in a stub through the CLI's service factory.
type docService interface {
	GetDocumentation(ctx context.Context, name string, bypassCache bool) (*docs.Documentation, error)
	IsCached(ctx context.Context, name string) bool
	Invalidate(ctx context.Context, name string) error
	InvalidateAll(ctx context.Context) error
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag value, resolved lazily by loadConfig.
	ConfigPath string

	// newService builds the documentation service. Overridable in tests.
	newService func(ctx context.Context, cfg config.Config) (docService, func(), error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
	c.newService = c.buildService
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pkgdocs looks up npm package documentation",
		Long:         `pkgdocs fetches documentation for npm packages from the registry and serves it from a local cache, as a CLI or as an HTTP API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to a TOML config file")

	root.AddCommand(c.lookupCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the effective configuration for a command invocation.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildService wires a store and registry client into a fetcher.Service.
// The returned closer releases the store.
func (c *CLI) buildService(ctx context.Context, cfg config.Config) (docService, func(), error) {
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	client := registry.NewClient(cfg.RegistryBaseURL, c.Logger)
	svc := fetcher.New(store, client, cfg.CacheTTL, c.Logger)

	closer := func() {
		if err := store.Close(); err != nil {
			c.Logger.Warn("failed to close store", "error", err)
		}
	}
	return svc, closer, nil
}

// openStore selects the cache backend from the configuration.
func (c *CLI) openStore(ctx context.Context, cfg config.Config) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return docstore.NewSQLite(cfg.DBPath, c.Logger)
	case config.BackendRedis:
		return docstore.NewRedis(ctx, cfg.RedisAddr, c.Logger)
	case config.BackendMongo:
		return docstore.NewMongo(ctx, cfg.MongoURI, c.Logger)
	case config.BackendMemory:
		return docstore.NewMemory(c.Logger), nil
	default:
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.StoreBackend)
	}
}
