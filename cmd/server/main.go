package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"care_tracker/internal/config"
	"care_tracker/internal/logger"
)

// appEnv is what every subcommand starts from.
type appEnv struct {
	cfg    *config.Config
	logOut io.Writer
}

type loader func() *appEnv

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "care_tracker",
		Short:        "Caregiver location telemetry and geofence service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to an optional configuration file")

	load := func() *appEnv {
		cfg, err := config.Load(configFile)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}
		out := logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
		return &appEnv{cfg: cfg, logOut: out}
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newReplayCmd(load),
		newMigrateCmd(load),
		newDeviceCmd(load),
		newTokenCmd(load),
	)

	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
