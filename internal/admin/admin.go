// Package admin implements sharkctl, the SharkGuard maintenance CLI.
//
// Every command except species loads the same environment configuration as
// the server and opens the configured store.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sharkguard/internal/application"
	"github.com/JonMunkholm/sharkguard/internal/config"
	"github.com/JonMunkholm/sharkguard/internal/logging"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// skipConfig marks commands that run without configuration.
const skipConfig = "skip-config"

// cli carries state shared by the subcommands.
type cli struct {
	envFile  string
	logLevel string
	cfg      *config.Config
}

// RootCommand creates the sharkctl command tree.
func RootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "sharkctl",
		Short:         "SharkGuard catch data maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so command output stays parseable.
		logging.SetupWriter(cmd.ErrOrStderr(), c.logLevel, "text")

		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}
		return c.loadConfig()
	}

	rootCmd.AddCommand(
		importCommand(c),
		historyCommand(c),
		migrateCommand(c),
		resetCommand(c),
		speciesCommand(),
		usersCommand(c),
	)
	return rootCmd
}

func (c *cli) loadConfig() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// open builds the application for one command run.
func (c *cli) open(ctx context.Context, opts ...application.Option) (*application.App, error) {
	app, err := application.New(ctx, c.cfg, opts...)
	if err != nil {
		return nil, err
	}
	slog.Debug("store opened", "driver", c.cfg.Database.Driver)
	return app, nil
}
