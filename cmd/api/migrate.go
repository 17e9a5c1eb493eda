package main

import (
	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/table-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/table-booking/internal/db"
	"github.com/BruksfildServices01/table-booking/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			db, err := dbpkg.NewDB(cfg, log)
			if err != nil {
				return err
			}
			if err := dbpkg.Migrate(db); err != nil {
				return err
			}

			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
