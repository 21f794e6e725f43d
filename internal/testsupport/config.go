package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"prdowngrade/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Watch.Dir = filepath.Join(base, "watch")
	cfgVal.Watch.SettleSeconds = 0
	cfgVal.Watch.PollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTargetVersion overrides the default target version.
func WithTargetVersion(version string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Downgrade.TargetVersion = version
	}
}

// WithMarkMode overrides how the watcher marks consumed inputs.
func WithMarkMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.MarkMode = mode
	}
}

// WithOutputDir routes outputs to a new directory under the test root.
func WithOutputDir(name string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir output dir: %v", err)
		}
		b.cfg.Downgrade.OutputDir = dir
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
