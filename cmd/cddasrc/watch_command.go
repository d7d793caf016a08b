package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cddasrc/internal/disc"
	"cddasrc/internal/logging"
	"cddasrc/internal/rip"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var autoRip bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Wait for audio discs and optionally rip each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rip") {
				autoRip = cfg.Monitor.AutoRip
			}
			out := cmd.OutOrStdout()
			logger := ctx.log()

			handler := func(runCtx context.Context, device string) {
				fmt.Fprintf(out, "Audio disc detected in %s\n", device)
				if !autoRip {
					return
				}
				result, err := ripOnce(cmd, ctx, rip.Request{Device: device})
				if err != nil {
					if runCtx.Err() == nil {
						logging.ErrorWithContext(logger, "automatic rip failed", "auto_rip_failed",
							logging.Device(device),
							logging.Error(err),
						)
						fmt.Fprintf(cmd.ErrOrStderr(), "rip of %s failed: %v\n", device, err)
					}
					return
				}
				fmt.Fprintln(out, renderRipResult(result))
			}

			monitor := disc.NewMonitor(ctx.device(), logger, handler)
			runCtx := commandCtx(cmd)
			if err := monitor.Start(runCtx); err != nil {
				return rip.Wrap(rip.ErrDevice, "", "watch", "could not subscribe to udev events", err)
			}
			defer monitor.Stop()

			target := ctx.device()
			if target == "" {
				target = "any drive"
			}
			fmt.Fprintf(out, "Watching %s (auto rip %s); press Ctrl-C to stop\n", target, yesNo(autoRip))
			<-runCtx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&autoRip, "rip", false, "Rip every inserted disc (default: monitor.auto_rip)")
	return cmd
}
