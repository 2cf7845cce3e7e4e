package main

import (
	"time"

	"github.com/spf13/cobra"

	"care_tracker/internal/middleware"
)

func newTokenCmd(load loader) *cobra.Command {
	var caregiverID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a caregiver token for local testing of the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load().cfg
			token, err := middleware.GenerateToken([]byte(cfg.JWTSecret), caregiverID, ttl)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&caregiverID, "caregiver", "", "Caregiver id to issue the token for")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("caregiver")
	return cmd
}
