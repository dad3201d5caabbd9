package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ereinhol/nycevents/internal/event"
	"github.com/ereinhol/nycevents/internal/nyc"
)

func newSeedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import NYC permitted events",
		Long:  "Fetch the NYC permitted-events dataset and replace the stored city events with it. User-created events are untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to fetch (default from config)")

	return cmd
}

func runSeed(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if limit != 0 {
		cfg.NYCFetchLimit = limit
	}

	database, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	seeder := nyc.NewSeeder(
		nyc.NewClient(cfg.NYCAPIURL, cfg.NYCFetchLimit),
		event.NewRepository(database),
	)

	n, err := seeder.Seed()
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d NYC events\n", n)
	return nil
}
