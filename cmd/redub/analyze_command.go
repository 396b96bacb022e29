package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/notifications"
	"redub/internal/preflight"
	"redub/internal/services"
	"redub/internal/session"
	"redub/internal/transcript"
)

// contextFileName is the pipeline context snapshot written into each work
// directory so a run can be finished without the session store.
const contextFileName = "context.json"

type analyzeResult struct {
	SessionID   string            `json:"session_id"`
	WorkDir     string            `json:"work_dir"`
	ContextPath string            `json:"context_path"`
	Segments    []dubbing.Segment `json:"segments"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Extract, separate and transcribe a video for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *session.Store) error {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				if err := cfg.ValidateAnalyze(); err != nil {
					return err
				}
				video, err := resolveVideo(args[0])
				if err != nil {
					return err
				}
				if err := runPreflight(cmd.Context(), cfg, preflight.PhaseAnalyze); err != nil {
					return err
				}

				unlock, err := lockSharedWorkDir(cfg, video)
				if err != nil {
					return err
				}
				defer unlock()

				pipeline, cleanup, err := buildPipeline(cfg, logger)
				if err != nil {
					return err
				}
				defer closeQuietly(logger, cleanup)

				notifier := notifications.NewService(cfg)
				pc, err := pipeline.Analyze(cmd.Context(), video)
				if err != nil {
					warnNotifyFailure(logger, notifier.NotifyDubFailed(cmd.Context(), video, err))
					return err
				}
				sess, contextPath, err := recordAnalysis(cmd.Context(), store, pc, logger)
				if err != nil {
					return err
				}
				warnNotifyFailure(logger, notifier.NotifyAnalyzed(cmd.Context(), video, sess.ID, len(pc.Segments)))

				if exportPath != "" {
					if err := exportSegments(cmd.OutOrStdout(), exportPath, "", pc.Segments); err != nil {
						return fmt.Errorf("export segments: %w", err)
					}
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, analyzeResult{
						SessionID:   sess.ID,
						WorkDir:     pc.WorkDir,
						ContextPath: contextPath,
						Segments:    pc.Segments,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s (%d segments)\n", sess.ID, len(pc.Segments))
				fmt.Fprintln(out, renderSegments(pc.Segments))
				if exportPath != "" {
					fmt.Fprintf(out, "Segments exported to %s\n", exportPath)
				}
				fmt.Fprintf(out, "Review the transcript, then run: redub finish %s --language <language>\n", shortID(sess.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write segments to a file (.csv, .srt or .json)")
	return cmd
}

// recordAnalysis stores the analyzed context as a new session and snapshots
// it into the work directory.
func recordAnalysis(ctx context.Context, store *session.Store, pc *dubbing.PipelineContext, logger *slog.Logger) (*session.Session, string, error) {
	sess, err := store.Create(ctx, pc)
	if err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}
	contextPath := filepath.Join(pc.WorkDir, contextFileName)
	if err := transcript.SaveContext(contextPath, pc); err != nil {
		logging.WarnWithContext(logger, "context snapshot not written", "context_snapshot_failed",
			logging.String("path", contextPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "finish must use the session id"),
		)
		contextPath = ""
	}
	logger.Info("analysis recorded",
		logging.String("session_id", sess.ID),
		logging.Int("segments", len(pc.Segments)),
		logging.String(logging.FieldEventType, "session_created"),
	)
	return sess, contextPath, nil
}

func resolveVideo(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve video", "video path is required", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve video path: %w", err)
	}
	if !fileutil.IsRegularFile(abs) {
		return "", services.Wrap(services.ErrNotFound, "cli", "resolve video", abs, nil)
	}
	return abs, nil
}

func runPreflight(ctx context.Context, cfg *config.Config, phase preflight.Phase) error {
	failed := preflight.Failed(preflight.RunAll(ctx, cfg, phase))
	if len(failed) == 0 {
		return nil
	}
	problems := make([]string, 0, len(failed))
	for _, r := range failed {
		problems = append(problems, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "cli", "preflight", strings.Join(problems, "; "), nil)
}

// lockSharedWorkDir serializes runs that create their work dirs inside the
// dubbing_temp directory next to the video. Runs under a work root need no
// lock.
func lockSharedWorkDir(cfg *config.Config, video string) (func() error, error) {
	if strings.TrimSpace(cfg.Paths.WorkRoot) != "" {
		return func() error { return nil }, nil
	}
	return dubbing.LockWorkDir(dubbing.SharedWorkRoot(video))
}

func closeQuietly(logger *slog.Logger, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Debug("cleanup failed", logging.Error(err))
	}
}
