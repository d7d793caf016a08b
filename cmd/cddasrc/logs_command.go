package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cddasrc/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines   int
		follow  bool
		level   string
		session string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the cddasrc log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logs.DefaultPath(cfg.Paths.LogDir)
			filter := logs.Filter{MinLevel: level, Session: session}
			out := cmd.OutOrStdout()

			res, err := logs.Tail(path, logs.TailOptions{Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			for _, line := range res.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(commandCtx(cmd), path, res.Offset, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&session, "session", "", "Only lines from this session (rip) ID")
	return cmd
}
