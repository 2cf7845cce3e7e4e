package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"care_tracker/internal/config"
)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the location_history, safe_zones and devices tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load().cfg
			// OpenDB migrates on connect.
			if _, err := config.OpenDB(cfg); err != nil {
				return err
			}
			logrus.WithField("driver", cfg.DBDriver).Info("Database migrated")
			cmd.Println("migrated")
			return nil
		},
	}
}
