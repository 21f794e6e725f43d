package safety

import (
	"os"
	"path/filepath"
	"testing"

	"prdowngrade/internal/faults"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, outDir, target, want string
	}{
		{"/p/Edit.prproj", "", "1", "/p/Edit_DOWNGRADED(v.1).prproj"},
		{"/p/Edit.prproj", "/out", "1", "/out/Edit_DOWNGRADED(v.1).prproj"},
		{"/p/My Cut.v2.prproj", "", "15", "/p/My Cut.v2_DOWNGRADED(v.15).prproj"},
		{"Edit.prproj", "  ", "1", "Edit_DOWNGRADED(v.1).prproj"},
	}
	for _, tc := range tests {
		if got := OutputPath(tc.input, tc.outDir, tc.target); got != tc.want {
			t.Fatalf("OutputPath(%q, %q, %q) = %q, want %q", tc.input, tc.outDir, tc.target, got, tc.want)
		}
	}
}

func TestHasExtension(t *testing.T) {
	for path, want := range map[string]bool{
		"a.prproj":       true,
		"/x/a.prproj":    true,
		"a.PRPROJ":       false,
		"a.prproj.bak":   false,
		"file.txt":       false,
		".prproj":        false,
		"/x/dir/.prproj": false,
	} {
		if got := HasExtension(path); got != want {
			t.Fatalf("HasExtension(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCheckExtension(t *testing.T) {
	if err := CheckExtension("/p/Edit.prproj"); err != nil {
		t.Fatalf("CheckExtension: %v", err)
	}
	err := CheckExtension("/p/notes.txt")
	if !faults.Is(err, faults.KindInvalidExtension) {
		t.Fatalf("expected invalid_extension, got %v", err)
	}
}

func TestIsDowngraded(t *testing.T) {
	if !IsDowngraded("/p/Edit_DOWNGRADED(v.1).prproj") {
		t.Fatal("expected output name to be detected")
	}
	if IsDowngraded("/p/_DOWNGRADED(v.1)/Edit.prproj") {
		t.Fatal("directory names must not count")
	}
}

func TestValidateExtensionGate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "file.txt")
	err := Validate(input, OutputPath(input, "", "1"))
	if !faults.Is(err, faults.KindInvalidExtension) {
		t.Fatalf("expected invalid_extension, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("validation wrote files: %v", entries)
	}
}

func TestValidateNoClobber(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Edit.prproj")
	output := OutputPath(input, "", "1")
	if err := os.WriteFile(output, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Validate(input, output); !faults.Is(err, faults.KindOutputExists) {
		t.Fatalf("expected output_exists, got %v", err)
	}
	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Fatalf("existing output modified: %q", got)
	}
}

func TestValidateOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Edit.prproj")

	if err := Validate(input, OutputPath(input, filepath.Join(dir, "missing"), "1")); !faults.Is(err, faults.KindIO) {
		t.Fatalf("expected io failure for missing directory, got %v", err)
	}

	notDir := filepath.Join(dir, "file")
	if err := os.WriteFile(notDir, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Validate(input, OutputPath(input, notDir, "1")); !faults.Is(err, faults.KindIO) {
		t.Fatalf("expected io failure for non-directory, got %v", err)
	}

	if err := Validate(input, OutputPath(input, "", "1")); err != nil {
		t.Fatalf("expected clean validation, got %v", err)
	}
}
