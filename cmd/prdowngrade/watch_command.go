package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"prdowngrade/internal/ledger"
	"prdowngrade/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var target string
	var outputDir string
	var once bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Downgrade every new project that appears in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			var dir string
			if len(args) == 1 {
				dir = args[0]
			}
			opts := watch.OptionsFromConfig(cfg, dir)
			if strings.TrimSpace(opts.Dir) == "" {
				return errors.New("no watch directory: pass one or set watch.dir in the config")
			}
			if cmd.Flags().Changed("target") {
				opts.TargetVersion = target
			}
			if cmd.Flags().Changed("output-dir") {
				opts.OutputDir = strings.TrimSpace(outputDir)
			}

			logger, err := ctx.logger(cmd, true)
			if err != nil {
				return err
			}
			p, err := ctx.pipeline(logger, nil)
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			w, err := watch.New(opts, p, store, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var summary watch.Summary
			if once {
				summary, err = w.ScanOnce(runCtx)
			} else {
				summary, err = w.Run(runCtx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", w.Dir(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Version to write into each project record (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for downgraded copies (default: the watched directory)")
	cmd.Flags().BoolVar(&once, "once", false, "Scan the directory once and exit")
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
