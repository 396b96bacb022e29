package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "absent.toml")

	out, _, err := runCLI(t, []string{"config", "validate"}, missing)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults were used")
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"sessions", "list"}, env.configPath); err == nil {
		t.Fatal("expected invalid logging level to fail")
	}
}

func TestConfigShowRedactsCredentials(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithTranslationKey("sk-very-secret"))

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-very-secret") {
		t.Fatalf("expected credential to be redacted, got %q", out)
	}
	requireContains(t, out, "[translation]")
	requireContains(t, out, redacted)

	out, _, err = runCLI(t, []string{"config", "show", "--reveal"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --reveal: %v", err)
	}
	requireContains(t, out, "sk-very-secret")
}

func TestConfigValidateReportsPhaseReadiness(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithTranslationKey("key"))

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Analyze phase ready")
	requireContains(t, out, "Finish phase ready")
}
