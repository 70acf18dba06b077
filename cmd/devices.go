// File: cmd/devices.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/droidpilot/droidpilot/internal/adb"
	"github.com/droidpilot/droidpilot/internal/config"
	"github.com/droidpilot/droidpilot/internal/observability"
)

// newDevicesCmd creates the `devices` command.
func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Lists Android devices visible to adb",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			client := adb.NewClient(cfg.Device, observability.GetLogger())
			devices, err := client.Devices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list devices (is adb on PATH?): %w", err)
			}

			if len(devices) == 0 {
				cmd.Println("no devices connected")
				return nil
			}
			for _, d := range devices {
				cmd.Printf("%s\t%s\n", d.Serial, d.State)
			}
			return nil
		},
	}
}
