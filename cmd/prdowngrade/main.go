package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"prdowngrade/internal/faults"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func reportError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) && !faults.Is(err, faults.KindIO) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if kind, ok := faults.KindOf(err); ok {
		if hint := kind.Hint(); hint != "" {
			fmt.Fprintf(w, "Hint: %s\n", hint)
		}
	}
}

// exitCode maps failures to stable process exit codes so scripts can react
// to specific kinds.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, ok := faults.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case faults.KindInvalidExtension:
		return 2
	case faults.KindNotFound:
		return 3
	case faults.KindFormat:
		return 4
	case faults.KindRecordNotFound:
		return 5
	case faults.KindOutputExists:
		return 6
	case faults.KindIO:
		return 7
	case faults.KindInvalidTarget:
		return 8
	default:
		return 1
	}
}
