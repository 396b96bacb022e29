package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/services"
	"redub/internal/session"
)

type sessionView struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	SourceVideo    string    `json:"source_video"`
	WorkDir        string    `json:"work_dir"`
	Segments       int       `json:"segments"`
	TargetLanguage string    `json:"target_language,omitempty"`
	OutputPath     string    `json:"output_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newSessionView(sess *session.Session) sessionView {
	view := sessionView{
		ID:             sess.ID,
		Status:         string(sess.Status),
		SourceVideo:    sess.SourceVideoPath(),
		Segments:       sess.SegmentCount(),
		TargetLanguage: sess.TargetLanguage,
		OutputPath:     sess.OutputPath,
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      sess.UpdatedAt,
	}
	if sess.Context != nil {
		view.WorkDir = sess.Context.WorkDir
	}
	return view
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List and remove analyzed sessions",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsRemoveCommand(ctx))
	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFilters)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *session.Store) error {
				sessions, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					views := make([]sessionView, 0, len(sessions))
					for _, sess := range sessions {
						views = append(views, newSessionView(sess))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, sess := range sessions {
					rows = append(rows, []string{
						shortID(sess.ID),
						string(sess.Status),
						fmt.Sprintf("%d", sess.SegmentCount()),
						sess.TargetLanguage,
						truncate(sess.SourceVideoPath(), 48),
						sess.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Segments", "Language", "Video", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by status (analyzed, finished)")
	return cmd
}

func newSessionsRemoveCommand(ctx *commandContext) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:     "rm <session>...",
		Aliases: []string{"remove"},
		Short:   "Delete sessions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *session.Store) error {
				out := cmd.OutOrStdout()
				for _, ref := range args {
					sess, err := store.Get(cmd.Context(), ref)
					if err != nil {
						return err
					}
					if err := store.Delete(cmd.Context(), sess.ID); err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed session %s\n", sess.ID)
					if !purge || sess.Context == nil || sess.Context.WorkDir == "" {
						continue
					}
					removed, err := purgeWorkDir(cmd, store, sess.Context.WorkDir)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed work directory %s\n", sess.Context.WorkDir)
					} else {
						fmt.Fprintf(out, "Kept work directory %s (used by another session)\n", sess.Context.WorkDir)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the session's work directory when no other session uses it")
	return cmd
}

// purgeWorkDir removes dir unless a remaining session still points at it.
func purgeWorkDir(cmd *cobra.Command, store *session.Store, dir string) (bool, error) {
	remaining, err := store.List(cmd.Context())
	if err != nil {
		return false, err
	}
	for _, other := range remaining {
		if other.Context != nil && other.Context.WorkDir == dir {
			return false, nil
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove work directory: %w", err)
	}
	return true, nil
}

func parseStatuses(values []string) ([]session.Status, error) {
	var statuses []session.Status
	for _, raw := range values {
		switch status := session.Status(strings.ToLower(strings.TrimSpace(raw))); status {
		case session.StatusAnalyzed, session.StatusFinished:
			statuses = append(statuses, status)
		case "":
		default:
			return nil, services.Wrap(services.ErrValidation, "cli", "sessions list", fmt.Sprintf("unknown status %q", raw), nil)
		}
	}
	return statuses, nil
}
