package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"prdowngrade/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "prdowngrade", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "prdowngrade")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LedgerPath() != filepath.Join(wantState, "ledger.db") {
		t.Fatalf("unexpected ledger path %q", cfg.LedgerPath())
	}
	if cfg.Downgrade.TargetVersion != "1" {
		t.Fatalf("expected default target version 1, got %q", cfg.Downgrade.TargetVersion)
	}
	if cfg.Downgrade.OutputDir != "" {
		t.Fatalf("expected empty output dir, got %q", cfg.Downgrade.OutputDir)
	}
	if cfg.Container.CompressionLevel != -1 {
		t.Fatalf("expected default compression level, got %d", cfg.Container.CompressionLevel)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Fatalf("unexpected poll interval %s", cfg.PollInterval())
	}
	if cfg.Watch.MarkMode != config.MarkModeLedger {
		t.Fatalf("unexpected mark mode %q", cfg.Watch.MarkMode)
	}
	if _, err := os.Stat(cfg.Paths.StateDir); !os.IsNotExist(err) {
		t.Fatalf("Load must not create directories, stat err=%v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "prdowngrade.toml")

	type payload struct {
		Downgrade struct {
			TargetVersion string `toml:"target_version"`
			OutputDir     string `toml:"output_dir"`
		} `toml:"downgrade"`
		Watch struct {
			PollInterval int    `toml:"poll_interval"`
			MarkMode     string `toml:"mark_mode"`
		} `toml:"watch"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Downgrade.TargetVersion = " 3 "
	custom.Downgrade.OutputDir = filepath.Join(tempDir, "out")
	custom.Watch.PollInterval = 30
	custom.Watch.MarkMode = "RENAME"
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Downgrade.TargetVersion != "3" {
		t.Fatalf("expected trimmed target version, got %q", cfg.Downgrade.TargetVersion)
	}
	if cfg.Downgrade.OutputDir != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected output dir %q", cfg.Downgrade.OutputDir)
	}
	if cfg.Watch.PollInterval != 30 || cfg.Watch.MarkMode != config.MarkModeRename {
		t.Fatalf("unexpected watch settings %+v", cfg.Watch)
	}
	if cfg.Watch.SettleSeconds != 2 {
		t.Fatalf("expected default settle seconds to survive partial file, got %d", cfg.Watch.SettleSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "prdowngrade.toml")
	if err := os.WriteFile(configPath, []byte("[downgrade]\ntarget = \"1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "target_version") {
		t.Fatalf("sample config missing target_version: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Downgrade.TargetVersion != "1" {
		t.Fatalf("unexpected sample target version %q", cfg.Downgrade.TargetVersion)
	}
	if !strings.Contains(cfg.Paths.StateDir, "prdowngrade") {
		t.Fatalf("expected state dir to contain prdowngrade, got %q", cfg.Paths.StateDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty target", func(c *config.Config) { c.Downgrade.TargetVersion = "" }},
		{"quoted target", func(c *config.Config) { c.Downgrade.TargetVersion = `1"` }},
		{"compression too high", func(c *config.Config) { c.Container.CompressionLevel = 10 }},
		{"compression too low", func(c *config.Config) { c.Container.CompressionLevel = -2 }},
		{"zero poll interval", func(c *config.Config) { c.Watch.PollInterval = 0 }},
		{"negative settle", func(c *config.Config) { c.Watch.SettleSeconds = -1 }},
		{"unknown mark mode", func(c *config.Config) { c.Watch.MarkMode = "delete" }},
		{"unknown level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}
