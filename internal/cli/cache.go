package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgdocs/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the documentation cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheRemoveCommand())
	cmd.AddCommand(c.cacheCheckCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := c.serviceFromConfig(cmd)
			if err != nil {
				return err
			}
			defer closer()

			if err := svc.InvalidateAll(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Cache cleared")
			return nil
		},
	}
}

// cacheRemoveCommand creates the "cache remove" subcommand.
func (c *CLI) cacheRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <package>",
		Short: "Remove one package from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := c.serviceFromConfig(cmd)
			if err != nil {
				return err
			}
			defer closer()

			if err := svc.Invalidate(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Removed %s from the cache", args[0])
			return nil
		},
	}
}

// cacheCheckCommand creates the "cache check" subcommand. It exits non-zero
// when the package is not cached, so it is scriptable.
func (c *CLI) cacheCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <package>",
		Short: "Check whether a package has a valid cache entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := c.serviceFromConfig(cmd)
			if err != nil {
				return err
			}
			defer closer()

			if svc.IsCached(cmd.Context(), args[0]) {
				printSuccess("%s is cached", args[0])
				return nil
			}
			printInfo("%s is not cached", args[0])
			return fmt.Errorf("no valid cache entry for %s", args[0])
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location for the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			switch cfg.StoreBackend {
			case config.BackendSQLite:
				fmt.Println(cfg.DBPath)
			case config.BackendRedis:
				fmt.Println(cfg.RedisAddr)
			case config.BackendMongo:
				fmt.Println(cfg.MongoURI)
			default:
				fmt.Println(cfg.StoreBackend)
			}
			return nil
		},
	}
}

// serviceFromConfig resolves config and builds the service for a command.
func (c *CLI) serviceFromConfig(cmd *cobra.Command) (docService, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return c.newService(cmd.Context(), cfg)
}
