// Package safety guards the filesystem around a downgrade: it checks the
// input extension, derives the output name, and refuses to touch an output
// that already exists.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prdowngrade/internal/faults"
	"prdowngrade/internal/fileutil"
)

// Extension is the required container extension. The match is case-sensitive.
const Extension = ".prproj"

// DowngradedMarker tags every output filename.
const DowngradedMarker = "_DOWNGRADED(v."

// OutputPath derives the output location for input. An empty outputDir
// places the result next to the input.
//
//	/p/Edit.prproj, "", "1"  ->  /p/Edit_DOWNGRADED(v.1).prproj
func OutputPath(input, outputDir, target string) string {
	dir := outputDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), Extension)
	return filepath.Join(dir, fmt.Sprintf("%s%s%s)%s", base, DowngradedMarker, target, Extension))
}

// HasExtension reports whether path ends with Extension.
func HasExtension(path string) bool {
	return strings.HasSuffix(path, Extension) && len(filepath.Base(path)) > len(Extension)
}

// IsDowngraded reports whether path names a file this tool produced.
func IsDowngraded(path string) bool {
	return strings.Contains(filepath.Base(path), DowngradedMarker)
}

// CheckExtension rejects inputs that are not project containers.
func CheckExtension(input string) error {
	if !HasExtension(input) {
		return faults.New(faults.KindInvalidExtension, "validate", input,
			fmt.Sprintf("expected %s, found %q", Extension, filepath.Ext(input)))
	}
	return nil
}

// Validate checks that input is a project container and that output is free
// to be written. It performs no writes.
func Validate(input, output string) error {
	const op = "validate"

	if err := CheckExtension(input); err != nil {
		return err
	}

	exists, err := fileutil.Exists(output)
	if err != nil {
		return faults.Wrap(faults.KindIO, op, output, err)
	}
	if exists {
		return faults.New(faults.KindOutputExists, op, output, "refusing to overwrite a previous result")
	}

	dir := filepath.Dir(output)
	info, err := os.Stat(dir)
	if err != nil {
		return faults.Wrapf(faults.KindIO, op, dir, err, "output directory unavailable")
	}
	if !info.IsDir() {
		return faults.New(faults.KindIO, op, dir, "output directory is not a directory")
	}
	return nil
}
