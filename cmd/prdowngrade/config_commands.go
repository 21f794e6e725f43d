package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prdowngrade/internal/config"
	"prdowngrade/internal/fileutil"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				exists, err := fileutil.Exists(target)
				if err != nil {
					return fmt.Errorf("check config path: %w", err)
				}
				if exists {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			if _, statErr := os.Stat(ctx.configPath); statErr == nil {
				fmt.Fprintln(out, renderStatusLine("Config file", statusOK, ctx.configPath, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, "not found; defaults in use", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Target version", statusOK, cfg.Downgrade.TargetVersion, colorize))

			dirs := [][2]string{
				{"State directory", cfg.Paths.StateDir},
				{"Log directory", cfg.Paths.LogDir},
			}
			if cfg.Watch.Dir != "" {
				dirs = append(dirs, [2]string{"Watch directory", cfg.Watch.Dir})
			}
			var invalid []string
			for _, d := range dirs {
				status := dirStatus(d[1])
				fmt.Fprintln(out, renderStatusLine(d[0], status, d[1], colorize))
				if status == statusError {
					invalid = append(invalid, d[1])
				}
			}
			if len(invalid) > 0 {
				return fmt.Errorf("not a directory: %s", strings.Join(invalid, ", "))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// dirStatus flags a path that exists but is not a directory. Missing
// directories are fine; they are created on first use.
func dirStatus(path string) statusKind {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return statusInfo
	case !info.IsDir():
		return statusError
	default:
		return statusOK
	}
}
