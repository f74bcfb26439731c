package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeremiapane/restaurant-seating/config"
	"github.com/yeremiapane/restaurant-seating/database"
	"github.com/yeremiapane/restaurant-seating/utils"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the seating tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := utils.InitLogger(cfg.LogLevel); err != nil {
				return err
			}

			db, err := config.InitDB(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			utils.InfoLogger.Println("AutoMigrate completed.")
			return nil
		},
	}
}
