package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"care_tracker/internal/config"
	"care_tracker/internal/middleware"
	"care_tracker/internal/models"
	"care_tracker/internal/store"
)

func newDeviceCmd(load loader) *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Manage monitored devices",
	}

	var caregiverID, name, key string
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a device for a caregiver and print its credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load().cfg
			db, err := config.OpenDB(cfg)
			if err != nil {
				return err
			}
			if key == "" {
				key = uuid.NewString()
			}
			device, err := store.NewGormDeviceStore(db).Register(cmd.Context(), models.Device{
				ID:          uuid.NewString(),
				CaregiverID: caregiverID,
				Name:        name,
			}, key)
			if err != nil {
				return err
			}
			cmd.Printf("%s: %s\n%s: %s\n", middleware.DeviceIDHeader, device.ID, middleware.DeviceKeyHeader, key)
			return nil
		},
	}
	register.Flags().StringVar(&caregiverID, "caregiver", "", "Owning caregiver id")
	register.Flags().StringVar(&name, "name", "", "Display name")
	register.Flags().StringVar(&key, "key", "", "Device key (generated when empty)")
	_ = register.MarkFlagRequired("caregiver")

	deviceCmd.AddCommand(register)
	return deviceCmd
}
