package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/notifications"
	"redub/internal/preflight"
	"redub/internal/session"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags finishFlags

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Dub a video end to end without pausing for review",
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
				if err := cfg.ValidateFinish(); err != nil {
					return err
				}
				video, err := resolveVideo(args[0])
				if err != nil {
					return err
				}
				req, err := flags.request(cfg, ctx)
				if err != nil {
					return err
				}
				if err := runPreflight(cmd.Context(), cfg, preflight.PhaseAll); err != nil {
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
				started := time.Now()
				fail := func(err error) error {
					warnNotifyFailure(logger, notifier.NotifyDubFailed(cmd.Context(), video, err))
					return err
				}

				pc, err := pipeline.Analyze(cmd.Context(), video)
				if err != nil {
					return fail(err)
				}
				if err := dubbing.RequireSpeech(pc); err != nil {
					return fail(err)
				}
				sess, _, err := recordAnalysis(cmd.Context(), store, pc, logger)
				if err != nil {
					return err
				}
				output, err := pipeline.Finish(cmd.Context(), pc, req)
				if err != nil {
					return fail(fmt.Errorf("%w (resume with: redub finish %s)", err, shortID(sess.ID)))
				}
				warnNotifyFailure(logger, notifier.NotifyDubCompleted(cmd.Context(), video, output, req.TargetLanguage, time.Since(started)))
				if err := store.MarkFinished(cmd.Context(), sess.ID, req.TargetLanguage, output); err != nil {
					return fmt.Errorf("update session: %w", err)
				}
				return printFinish(cmd, ctx, finishResult{
					SessionID:      sess.ID,
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
