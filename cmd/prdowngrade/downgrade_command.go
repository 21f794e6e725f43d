package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"prdowngrade/internal/pipeline"
)

func newDowngradeCommand(ctx *commandContext) *cobra.Command {
	var target string
	var outputDir string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "downgrade <project.prproj>",
		Short: "Write a copy of a project that older Premiere Pro releases can open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, false)
			if err != nil {
				return err
			}

			req := pipeline.Request{
				Input:         args[0],
				TargetVersion: cfg.Downgrade.TargetVersion,
				OutputDir:     cfg.Downgrade.OutputDir,
			}
			if cmd.Flags().Changed("target") {
				req.TargetVersion = target
			}
			if cmd.Flags().Changed("output-dir") {
				req.OutputDir = strings.TrimSpace(outputDir)
			}

			var progress *stageProgress
			if !jsonOutput && shouldColorize(cmd.ErrOrStderr()) {
				progress = newStageProgress(cmd.ErrOrStderr())
			}
			p, err := ctx.pipeline(logger, progress)
			if err != nil {
				return err
			}

			res, err := p.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, res)
			}
			printDowngradeResult(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Version to write into the project record (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the downgraded copy (default: next to the input)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	return cmd
}

func printDowngradeResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if res.Candidates > 1 {
		fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine("Project record", statusWarn,
			fmt.Sprintf("%d candidates; used the one on line %d", res.Candidates, res.Line), shouldColorize(cmd.ErrOrStderr())))
	}
	if res.AlreadyAtTarget {
		fmt.Fprintln(out, renderStatusLine("Project version", statusInfo,
			fmt.Sprintf("already %s; copy written unchanged", res.TargetVersion), colorize))
	}
	fmt.Fprintf(out, "Previous version: %s\n", res.PreviousVersion)
	fmt.Fprintf(out, "New version: %s\n", res.TargetVersion)
	fmt.Fprintf(out, "Downgrade complete. New file: %s\n", res.Output)
}

// stageProgress renders pipeline stages as a terminal progress bar. A nil
// *stageProgress is a valid no-op observer.
type stageProgress struct {
	bar *progressbar.ProgressBar
}

func newStageProgress(w io.Writer) *stageProgress {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return &stageProgress{bar: bar}
}

func (p *stageProgress) OnStage(e pipeline.Event) {
	if p == nil || p.bar == nil {
		return
	}
	if e.Stage == pipeline.StageFailed {
		_ = p.bar.Exit()
		return
	}
	p.bar.Describe(e.Stage.String())
	_ = p.bar.Set(e.Stage.Percent())
	if e.Stage.Terminal() {
		_ = p.bar.Finish()
	}
}
