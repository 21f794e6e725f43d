package config

import (
	"errors"
	"fmt"

	"prdowngrade/internal/project"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDowngrade(); err != nil {
		return err
	}
	if err := c.validateContainer(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDowngrade() error {
	if err := project.ValidateTarget(c.Downgrade.TargetVersion); err != nil {
		return fmt.Errorf("downgrade.target_version: %w", err)
	}
	return nil
}

func (c *Config) validateContainer() error {
	if c.Container.CompressionLevel < -1 || c.Container.CompressionLevel > 9 {
		return errors.New("container.compression_level must be between -1 and 9")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.PollInterval <= 0 {
		return errors.New("watch.poll_interval must be positive (seconds)")
	}
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must be >= 0")
	}
	switch c.Watch.MarkMode {
	case MarkModeLedger, MarkModeRename:
	default:
		return fmt.Errorf("watch.mark_mode must be %q or %q, got %q", MarkModeLedger, MarkModeRename, c.Watch.MarkMode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
