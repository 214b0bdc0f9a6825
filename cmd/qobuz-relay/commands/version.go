package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/services"
)

// NewVersionCommand prints the version and optionally checks for a newer one.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("qobuz-relay %s\n", Version)

			check, _ := cmd.Flags().GetBool("check")
			if !check {
				return nil
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DisableUpdateCheck {
				fmt.Println("Skipping update check as disable_update_check is enabled in config.")
				return nil
			}
			_, err = services.NewServiceContainer(cfg, nil).UpdaterService.CheckForUpdates(context.Background(), Version)
			return err
		},
	}
	cmd.Flags().Bool("check", false, "Check whether a newer version is published")
	return cmd
}
