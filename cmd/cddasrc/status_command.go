package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cddasrc/internal/cdda"
	"cddasrc/internal/cdda/libcdio"
	"cddasrc/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the drive, directories, and helper tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			device := ctx.device()
			if device == "" {
				device = "autodetect"
			}
			speed, _ := cdda.ParseReadSpeed(cfg.Device.ReadSpeed)
			fmt.Fprintln(out, renderStatusLine("Device", statusInfo, device, colorize))
			fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, cfg.Device.Backend, colorize))
			fmt.Fprintln(out, renderStatusLine("Read speed", statusInfo, speed.String(), colorize))
			fmt.Fprintln(out, renderStatusLine("Format", statusInfo, cfg.Rip.Format, colorize))
			fmt.Fprintln(out, renderStatusLine("Auto rip", statusInfo, yesNo(cfg.Monitor.AutoRip), colorize))
			fmt.Fprintln(out)

			results := preflight.RunAll(commandCtx(cmd), cfg, preflight.Options{
				DriveStatus:      ctx.statusFunc(),
				LibcdioAvailable: libcdio.Available,
			})
			renderChecks(out, "Checks", results, colorize)
			if failed := preflight.Failed(results); len(failed) > 0 {
				fmt.Fprintf(out, "\n%d required check(s) failed\n", len(failed))
			}
			return nil
		},
	}
}
