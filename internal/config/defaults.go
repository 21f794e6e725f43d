package config

import "prdowngrade/internal/project"

const (
	defaultConfigPath       = "~/.config/prdowngrade/config.toml"
	defaultProjectFile      = "prdowngrade.toml"
	defaultStateDir         = "~/.local/share/prdowngrade"
	defaultLogDir           = "~/.local/share/prdowngrade/logs"
	defaultCompressionLevel = -1
	defaultPollInterval     = 5
	defaultSettleSeconds    = 2
	defaultMarkMode         = MarkModeLedger
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Downgrade: Downgrade{
			TargetVersion: project.DefaultTargetVersion,
		},
		Container: Container{
			CompressionLevel: defaultCompressionLevel,
		},
		Watch: Watch{
			PollInterval:  defaultPollInterval,
			SettleSeconds: defaultSettleSeconds,
			MarkMode:      defaultMarkMode,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
