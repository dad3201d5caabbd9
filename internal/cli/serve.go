package cli

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ereinhol/nycevents/internal/auth"
	"github.com/ereinhol/nycevents/internal/event"
	"github.com/ereinhol/nycevents/internal/logging"
	"github.com/ereinhol/nycevents/internal/nyc"
	"github.com/ereinhol/nycevents/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int
	var dev bool
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API server, with a scheduled refresh of the NYC permitted-events dataset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, dev, noRefresh)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "verbose human-readable logging")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "disable the scheduled NYC dataset refresh")

	return cmd
}

func runServe(port int, dev, noRefresh bool) error {
	logging.Setup(dev)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
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
	sessions := auth.NewSessionStore(database)

	c := cron.New()
	if !noRefresh && cfg.RefreshSchedule != "" {
		if _, err := c.AddFunc(cfg.RefreshSchedule, func() {
			if _, err := seeder.Seed(); err != nil {
				slog.Error("scheduled NYC refresh failed", "err", err)
			}
		}); err != nil {
			return fmt.Errorf("scheduling NYC refresh %q: %w", cfg.RefreshSchedule, err)
		}
	}
	if _, err := c.AddFunc("@hourly", func() {
		if err := sessions.Cleanup(); err != nil {
			slog.Error("session cleanup failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling session cleanup: %w", err)
	}
	c.Start()
	defer c.Stop()

	server := web.NewServer(database, web.Options{
		HistoryWindow:    cfg.HistoryWindow,
		GeocodeCacheSize: cfg.GeocodeCache,
	})

	return server.ListenAndServe(cfg.Port)
}
