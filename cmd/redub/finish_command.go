package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/fileutil"
	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/notifications"
	"redub/internal/preflight"
	"redub/internal/services"
	"redub/internal/session"
	"redub/internal/transcript"
)

type finishFlags struct {
	language string
	output   string
	voice    voiceFlags
}

func (f *finishFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Target language (defaults to translation.target_language)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Dubbed video path (defaults to dubbed_<name> next to the source)")
	cmd.Flags().StringVar(&f.voice.voice, "voice", "", "Synthesis voice id, e.g. vi-VN-HoaiMyNeural")
	cmd.Flags().StringVar(&f.voice.profile, "profile", "", "Voice preset name, see 'redub voices'")
	cmd.Flags().StringVar(&f.voice.pitch, "pitch", "", "Pitch adjustment, e.g. +5Hz")
	cmd.Flags().StringVar(&f.voice.rate, "rate", "", "Rate adjustment, e.g. -10%")
}

// request turns the flags into a finish request for the resolved target.
func (f *finishFlags) request(cfg *config.Config, ctx *commandContext) (dubbing.FinishRequest, error) {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return dubbing.FinishRequest{}, err
	}
	target := orDefault(f.language, cfg.Translation.TargetLanguage)
	if target == "" {
		return dubbing.FinishRequest{}, services.Wrap(services.ErrValidation, "cli", "finish", "target language is required (--language)", nil)
	}
	if _, ok := language.Lookup(target); !ok {
		logging.WarnWithContext(logger, "target language not in catalog", "unknown_target_language",
			logging.String("target_language", target),
			logging.String(logging.FieldImpact, "translation prompt uses the name as given"),
		)
	}
	return dubbing.FinishRequest{
		TargetLanguage: target,
		OutputPath:     strings.TrimSpace(f.output),
		Voice:          resolveVoice(cfg, f.voice, target, logger),
	}, nil
}

type finishResult struct {
	SessionID      string `json:"session_id,omitempty"`
	TargetLanguage string `json:"target_language"`
	Voice          string `json:"voice"`
	OutputPath     string `json:"output_path"`
}

func newFinishCommand(ctx *commandContext) *cobra.Command {
	var flags finishFlags

	cmd := &cobra.Command{
		Use:   "finish <session|context.json>",
		Short: "Translate, synthesize, mix and mux an analyzed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *session.Store) error {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				if err := cfg.ValidateFinish(); err != nil {
					return err
				}

				sessionID, pc, err := loadFinishContext(cmd, store, args[0])
				if err != nil {
					return err
				}
				req, err := flags.request(cfg, ctx)
				if err != nil {
					return err
				}
				if err := runPreflight(cmd.Context(), cfg, preflight.PhaseFinish); err != nil {
					return err
				}

				unlock, err := dubbing.LockWorkDir(pc.WorkDir)
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
				started := time.Now()
				output, err := pipeline.Finish(cmd.Context(), pc, req)
				if err != nil {
					warnNotifyFailure(logger, notifier.NotifyDubFailed(cmd.Context(), pc.SourceVideoPath, err))
					return err
				}
				warnNotifyFailure(logger, notifier.NotifyDubCompleted(cmd.Context(), pc.SourceVideoPath, output, req.TargetLanguage, time.Since(started)))
				if sessionID != "" {
					if err := store.MarkFinished(cmd.Context(), sessionID, req.TargetLanguage, output); err != nil {
						return fmt.Errorf("update session: %w", err)
					}
				}
				return printFinish(cmd, ctx, finishResult{
					SessionID:      sessionID,
					TargetLanguage: req.TargetLanguage,
					Voice:          req.Voice.Voice,
					OutputPath:     output,
				})
			})
		},
	}

	flags.register(cmd)
	return cmd
}

// loadFinishContext accepts a session id (or unique prefix) or the path to a
// context snapshot. Snapshots have no session id.
func loadFinishContext(cmd *cobra.Command, store *session.Store, ref string) (string, *dubbing.PipelineContext, error) {
	if strings.HasSuffix(strings.ToLower(ref), ".json") && fileutil.IsRegularFile(ref) {
		pc, err := transcript.LoadContext(ref)
		if err != nil {
			return "", nil, err
		}
		return "", pc, nil
	}
	sess, err := store.Get(cmd.Context(), ref)
	if err != nil {
		return "", nil, err
	}
	return sess.ID, sess.Context, nil
}

func printFinish(cmd *cobra.Command, ctx *commandContext, result finishResult) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dubbed video written to %s\n", result.OutputPath)
	fmt.Fprintf(out, "Language: %s  Voice: %s\n", result.TargetLanguage, result.Voice)
	return nil
}
