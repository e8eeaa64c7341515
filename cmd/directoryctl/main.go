package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Simplici0/pestdirectory/internal/config"
	"github.com/Simplici0/pestdirectory/internal/db"
	"github.com/Simplici0/pestdirectory/internal/logging"
	"github.com/Simplici0/pestdirectory/internal/migrations"
)

var (
	// Build information (injected by the release build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli carries the state shared by every subcommand.
type cli struct {
	cfg    config.Config
	dbPath string
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Load()}

	rootCmd := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Manage the pest control directory",
		Long:          "Import client pricing sheets, resolve prices and sync profiles to the CMS.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.logger = logging.New(cmd.ErrOrStderr(), c.cfg.LogLevel, true)
			for _, w := range c.cfg.Warnings() {
				c.logger.Warn().Msg(w)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.dbPath, "db", "d", c.cfg.DBPath, "path to SQLite database file")

	rootCmd.AddCommand(
		c.newMigrateCmd(),
		c.newImportCmd(),
		c.newResolveCmd(),
		c.newSeedCmd(),
		c.newSyncCMSCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// openDB opens the database and applies pending migrations so every command
// works against a fresh file.
func (c *cli) openDB(ctx context.Context) (*sql.DB, error) {
	database, err := db.Open(ctx, c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := migrations.Up(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return database, nil
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := db.Open(ctx, c.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			applied, err := migrations.Up(ctx, database)
			if err != nil {
				return err
			}
			current, err := migrations.Version(ctx, database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s), schema version %d\n", applied, current)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "directoryctl version %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built at: %s\n", date)
		},
	}
}
