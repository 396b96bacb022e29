package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"redub/internal/deps"
	"redub/internal/notifications"
	"redub/internal/preflight"
)

type checkReport struct {
	System    []deps.Status      `json:"system"`
	Python    []deps.Status      `json:"python"`
	Preflight []preflight.Result `json:"preflight"`
}

func (r checkReport) failures() int {
	return len(deps.Missing(r.System)) + len(deps.Missing(r.Python)) + len(preflight.Failed(r.Preflight))
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool
	var notify bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify external tools, Python packages, directories and the translation LLM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			phase := preflight.PhaseAll
			if skipLLM {
				phase = preflight.PhaseAnalyze
			}
			report := checkReport{
				System:    preflight.CheckSystemDeps(cfg),
				Python:    preflight.CheckPythonDeps(cmd.Context(), cfg, nil),
				Preflight: preflight.RunAll(cmd.Context(), cfg, phase),
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printSection := func(title string, lines []string) {
					for _, line := range renderSectionHeader(title, colorize) {
						fmt.Fprintln(out, line)
					}
					for _, line := range lines {
						fmt.Fprintln(out, line)
					}
					fmt.Fprintln(out)
				}
				printSection("System dependencies", statusLines(report.System, colorize))
				printSection("Python packages", statusLines(report.Python, colorize))
				var lines []string
				for _, result := range report.Preflight {
					lines = append(lines, preflightStatusLine(result, colorize))
				}
				printSection("Environment", lines)
			}

			failures := report.failures()
			if notify {
				if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					failures++
					fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine("Notifications", statusError, err.Error(), false))
				} else if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine("Notifications", statusWarn, "ntfy_topic not configured", false))
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine("Notifications", statusOK, "test notification sent", false))
				}
			}
			if n := failures; n > 0 {
				return errors.New(pluralize(n, "check failed", "checks failed"))
			}
			if !ctx.jsonOutput() {
				fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "Send a test notification to the configured ntfy topic")
	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip the translation LLM health check")
	return cmd
}

func statusLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, status := range statuses {
		lines = append(lines, dependencyStatusLine(status, colorize))
	}
	return lines
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
