package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/session"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	segmentsCmd := &cobra.Command{
		Use:   "segments",
		Short: "Review and edit a session's transcript",
	}

	segmentsCmd.AddCommand(newSegmentsShowCommand(ctx))
	segmentsCmd.AddCommand(newSegmentsExportCommand(ctx))
	segmentsCmd.AddCommand(newSegmentsImportCommand(ctx))
	return segmentsCmd
}

func newSegmentsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session>",
		Short: "Print a session's segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *session.Store) error {
				sess, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, sess.Context.Segments)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s: %s\n", sess.ID, sess.SourceVideoPath())
				if sess.SegmentCount() == 0 {
					fmt.Fprintln(out, "No segments")
					return nil
				}
				fmt.Fprintln(out, renderSegments(sess.Context.Segments))
				return nil
			})
		},
	}
}

func newSegmentsExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Write a session's segments as CSV, SRT or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *session.Store) error {
				sess, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := exportSegments(cmd.OutOrStdout(), output, format, sess.Context.Segments); err != nil {
					return err
				}
				if output != "" && output != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d segments to %s\n", sess.SegmentCount(), output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: csv, srt or json (defaults to the output extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (stdout when omitted)")
	return cmd
}

func newSegmentsImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <session> <file>",
		Short: "Replace a session's segments with an edited CSV or JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *session.Store) error {
				segments, err := importSegments(args[1])
				if err != nil {
					return err
				}
				sess, err := store.UpdateSegments(cmd.Context(), args[0], segments)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, sess.Context.Segments)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s now has %d segments\n", sess.ID, sess.SegmentCount())
				return nil
			})
		},
	}
}
