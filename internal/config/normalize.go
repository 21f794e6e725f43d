package config

import (
	"fmt"
	"strings"

	"prdowngrade/internal/project"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDowngrade(); err != nil {
		return err
	}
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDowngrade() error {
	c.Downgrade.TargetVersion = strings.TrimSpace(c.Downgrade.TargetVersion)
	if c.Downgrade.TargetVersion == "" {
		c.Downgrade.TargetVersion = project.DefaultTargetVersion
	}
	var err error
	if c.Downgrade.OutputDir, err = expandPath(strings.TrimSpace(c.Downgrade.OutputDir)); err != nil {
		return fmt.Errorf("downgrade.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() error {
	var err error
	if c.Watch.Dir, err = expandPath(strings.TrimSpace(c.Watch.Dir)); err != nil {
		return fmt.Errorf("watch.dir: %w", err)
	}
	c.Watch.MarkMode = strings.ToLower(strings.TrimSpace(c.Watch.MarkMode))
	if c.Watch.MarkMode == "" {
		c.Watch.MarkMode = defaultMarkMode
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
