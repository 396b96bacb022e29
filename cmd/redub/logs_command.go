package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"redub/internal/logging"
	"redub/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the redub log, optionally for one run or stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.FileName)
			out := cmd.OutOrStdout()

			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(recent) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No matching log lines in %s\n", path)
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, filter, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only lines for this run id")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only lines for this pipeline stage")
	return cmd
}
