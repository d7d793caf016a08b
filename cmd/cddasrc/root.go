package main

import (
	"github.com/spf13/cobra"

	"cddasrc/internal/disc"
)

// rootOptions swap the hardware-facing collaborators in tests.
type rootOptions struct {
	driver      driverFactory
	driveStatus disc.StatusFunc
}

func newRootCommand() *cobra.Command {
	return newRootCommandWithOptions(rootOptions{driver: defaultDriver})
}

func newRootCommandWithOptions(opts rootOptions) *cobra.Command {
	var (
		configFlag string
		deviceFlag string
		speedFlag  int
	)

	ctx := newCommandContext(&configFlag, &deviceFlag, &speedFlag, opts.driver)
	ctx.driveStatus = opts.driveStatus

	rootCmd := &cobra.Command{
		Use:           "cddasrc",
		Short:         "Read and rip audio CDs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "CD device (default: device.path, then autodetect)")
	rootCmd.PersistentFlags().IntVar(&speedFlag, "read-speed", unsetSpeed, "Drive read speed, -1 for the drive default, 0-100 for a fixed multiple")

	rootCmd.AddCommand(newDevicesCommand(ctx))
	rootCmd.AddCommand(newTOCCommand(ctx))
	rootCmd.AddCommand(newDiscIDCommand(ctx))
	rootCmd.AddCommand(newRipCommand(ctx))
	rootCmd.AddCommand(newCatCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newEjectCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
