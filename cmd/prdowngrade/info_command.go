package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"prdowngrade/internal/container"
	"prdowngrade/internal/faults"
	"prdowngrade/internal/project"
	"prdowngrade/internal/safety"
)

type infoView struct {
	Path string `json:"path"`
	*project.Info
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <project.prproj>",
		Short: "Show the version markers of a project without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !safety.HasExtension(path) {
				return faults.New(faults.KindInvalidExtension, "info", path,
					fmt.Sprintf("expected %s", safety.Extension))
			}
			payload, err := container.Default().Decompress(cmd.Context(), path)
			if err != nil {
				return err
			}
			info, err := project.Inspect(payload)
			if err != nil {
				var fe *faults.Error
				if errors.As(err, &fe) && fe.Path == "" {
					fe.Path = path
				}
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, infoView{Path: path, Info: info})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				infoRows(path, info),
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	return cmd
}

func infoRows(path string, info *project.Info) [][]string {
	rows := [][]string{
		{"File", path},
		{"Origin", orDash(info.Origin)},
		{"Project version", info.ProjectVersion},
		{"Object ID", orDash(info.ObjectID)},
		{"Record line", strconv.Itoa(info.RecordLine)},
		{"Document", orDash(joinNonEmpty(info.RootElement, info.DocumentVersion, " v"))},
		{"Build created", orDash(info.BuildCreated)},
		{"Build modified", orDash(info.BuildModified)},
	}
	if info.Candidates > 1 {
		rows = append(rows, []string{"Candidates", strconv.Itoa(info.Candidates)})
	}
	return rows
}
