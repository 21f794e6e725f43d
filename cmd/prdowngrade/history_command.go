package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"prdowngrade/internal/fileutil"
	"prdowngrade/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded by the watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var runs []ledger.Run
			exists, err := fileutil.Exists(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("check ledger: %w", err)
			}
			if exists {
				store, err := ledger.Open(cfg.LedgerPath())
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer store.Close()
				if runs, err = store.ListRuns(cmdContext(cmd), limit); err != nil {
					return err
				}
			}

			if jsonOutput {
				if runs == nil {
					runs = []ledger.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Status", "Project", "Version", "Took", "Result"},
				historyRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", ledger.DefaultListLimit, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output runs as JSON")
	return cmd
}

func historyRows(runs []ledger.Run) [][]string {
	title := cases.Title(language.English)
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		version := run.TargetVersion
		if run.SourceVersion != "" {
			version = run.SourceVersion + " -> " + run.TargetVersion
		}
		result := filepath.Base(run.Output)
		if run.Status == ledger.StatusFailed {
			result = truncate(orDash(run.ErrorKind)+": "+run.Message, 60)
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format(time.DateTime),
			title.String(string(run.Status)),
			filepath.Base(run.Input),
			version,
			formatMillis(run.Duration()),
			result,
		})
	}
	return rows
}

func formatMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + " ms"
}
