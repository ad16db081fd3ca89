package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"caseflow/internal/platform/config"
	"caseflow/internal/platform/database"
	"caseflow/internal/platform/logger"
)

func newMigrateCommand() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			db, err := database.Open(cmd.Context(), cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if args[0] == "down" {
				return database.MigrateDown(db, steps, log)
			}
			return database.Migrate(db, log)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}
