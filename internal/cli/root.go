// Package cli defines the cobra command tree for nycevents.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ereinhol/nycevents/internal/config"
	"github.com/ereinhol/nycevents/internal/db"
)

var (
	flagConfig string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nye",
		Short:         "Discover events happening in New York City",
		Long:          "An events platform for New York City. Imports the city's permitted-events dataset, lets people post their own events, discuss them in threaded comments, and get personalized recommendations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: ~/.config/nye/config.yaml)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/nye/events.db)")

	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig loads server configuration, applying the --db override.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// openDB opens the SQLite database at the configured path.
func openDB(cfg config.Config) (*sql.DB, error) {
	return db.Open(cfg.DBPath)
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
