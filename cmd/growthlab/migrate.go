package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/growthlab/growthlab-web/internal/config"
	"github.com/growthlab/growthlab-web/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}
			version, err := db.Version(database, cfg.DB.Driver)
			if err != nil {
				return err
			}

			logger.Info("migrations complete", slog.Int64("version", version))
			return nil
		},
	}
}
