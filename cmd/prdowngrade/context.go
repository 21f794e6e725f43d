package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"prdowngrade/internal/config"
	"prdowngrade/internal/container"
	"prdowngrade/internal/logging"
	"prdowngrade/internal/pipeline"
)

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, logLevel, logFormat *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
		logFormat:  logFormat,
	}
}

// ensureConfig loads configuration once. It creates no directories: only
// commands that persist state do that.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevel)
		}
		if c.logFormat != nil && strings.TrimSpace(*c.logFormat) != "" {
			cfg.Logging.Format = strings.TrimSpace(*c.logFormat)
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger builds the command logger on the command's stderr. withFile adds
// the JSON log file used by long-running commands.
func (c *commandContext) logger(cmd *cobra.Command, withFile bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	}
	if withFile {
		opts.JSONFile = cfg.LogFile()
	}
	return logging.New(opts)
}

func (c *commandContext) pipeline(logger *slog.Logger, observer pipeline.Observer) (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	codec, err := container.New(cfg.Container.CompressionLevel)
	if err != nil {
		return nil, err
	}
	return pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithCodec(codec),
		pipeline.WithObserver(observer),
	), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
