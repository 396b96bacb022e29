package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/fileutil"
)

const redacted = "<redacted>"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect and validate the redub configuration",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(ctx),
		newConfigValidateCommand(ctx),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite && fileutil.IsRegularFile(target) {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set translation.api_key (or export GEMINI_API_KEY) before running redub finish.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after defaults and environment fallbacks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			effective := *cfg
			if !reveal {
				effective.Translation.APIKey = redact(effective.Translation.APIKey)
				effective.OpenAI.APIKey = redact(effective.OpenAI.APIKey)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, effective)
			}
			return writeTOML(cmd.OutOrStdout(), effective)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print credentials instead of redacting them")
	return cmd
}

func redact(secret string) string {
	if strings.TrimSpace(secret) == "" {
		return ""
	}
	return redacted
}

func writeTOML(w io.Writer, cfg config.Config) error {
	encoder := toml.NewEncoder(w)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and report which phases are ready",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			reportPhase(out, "Analyze", cfg.ValidateAnalyze())
			reportPhase(out, "Finish", cfg.ValidateFinish())
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func reportPhase(w io.Writer, phase string, err error) {
	if err == nil {
		fmt.Fprintf(w, "%s phase ready\n", phase)
		return
	}
	fmt.Fprintf(w, "%s phase not ready: %v\n", phase, err)
}
