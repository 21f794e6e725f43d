package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"prdowngrade/internal/config"
	"prdowngrade/internal/faults"
	"prdowngrade/internal/ledger"
	"prdowngrade/internal/pipeline"
	"prdowngrade/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestDowngradeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "projects", "Edit.prproj")
	testsupport.WriteContainer(t, input, testsupport.ProjectXML)

	out, _, err := runCLI(t, []string{"downgrade", input}, env.configPath)
	if err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	output := filepath.Join(env.baseDir, "projects", "Edit_DOWNGRADED(v.1).prproj")
	requireContains(t, out, "Previous version: 21")
	requireContains(t, out, "New version: 1")
	requireContains(t, out, "Downgrade complete. New file: "+output)
	requireContains(t, testsupport.ReadContainer(t, output), `Version="1">`)

	// A plain downgrade persists no state.
	if _, err := os.Stat(env.cfg.Paths.StateDir); !os.IsNotExist(err) {
		t.Fatalf("expected no state directory, stat err=%v", err)
	}

	_, _, err = runCLI(t, []string{"downgrade", input}, env.configPath)
	if got := exitCode(err); got != 6 {
		t.Fatalf("expected exit code 6 for existing output, got %d (%v)", got, err)
	}
}

func TestDowngradeCommandFlagsAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "Edit.prproj")
	testsupport.WriteContainer(t, input, testsupport.ProjectXML)
	outDir := filepath.Join(env.baseDir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"downgrade", input, "-t", "7", "-o", outDir, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("downgrade --json: %v", err)
	}
	var res struct {
		RunID           string `json:"run_id"`
		Output          string `json:"output"`
		PreviousVersion string `json:"previous_version"`
		TargetVersion   string `json:"target_version"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if res.Output != filepath.Join(outDir, "Edit_DOWNGRADED(v.7).prproj") || res.TargetVersion != "7" || res.PreviousVersion != "21" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestDowngradeCommandExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.baseDir

	noRecord := filepath.Join(dir, "Empty.prproj")
	testsupport.WriteContainer(t, noRecord, "<PremiereData Version=\"3\"/>\n")
	plain := filepath.Join(dir, "Plain.prproj")
	if err := os.WriteFile(plain, []byte(testsupport.ProjectXML), 0o644); err != nil {
		t.Fatal(err)
	}
	wrongExt := filepath.Join(dir, "Edit.txt")
	valid := filepath.Join(dir, "Valid.prproj")
	testsupport.WriteContainer(t, valid, testsupport.ProjectXML)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid extension", []string{"downgrade", wrongExt}, 2},
		{"missing input", []string{"downgrade", filepath.Join(dir, "Missing.prproj")}, 3},
		{"not gzip", []string{"downgrade", plain}, 4},
		{"no project record", []string{"downgrade", noRecord}, 5},
		{"invalid target", []string{"downgrade", valid, "-t", "<1>"}, 8},
		{"target with path separator", []string{"downgrade", valid, "-t", "/../../evil"}, 8},
		{"extension before target", []string{"downgrade", wrongExt, "-t", "<"}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, tc.args, env.configPath)
			if got := exitCode(err); got != tc.want {
				t.Fatalf("exit code = %d, want %d (err=%v)", got, tc.want, err)
			}
		})
	}
}

func TestInfoCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "Edit.prproj")
	testsupport.WriteContainer(t, input, testsupport.ProjectXML)

	out, _, err := runCLI(t, []string{"info", input}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Adobe Premiere Pro 2020")
	requireContains(t, out, "Project version")
	requireContains(t, out, "PremiereData v3")

	out, _, err = runCLI(t, []string{"info", input, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("info --json: %v", err)
	}
	var view map[string]any
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if view["project_version"] != "21" || view["path"] != input {
		t.Fatalf("unexpected info json %v", view)
	}

	if names := testsupport.DirEntries(t, env.baseDir); len(names) != 2 {
		t.Fatalf("info must not write files, found %v", names)
	}
}

func TestWatchOnceAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Watch.Dir, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")

	testsupport.WriteContainer(t, filepath.Join(env.cfg.Watch.Dir, "Edit.prproj"), testsupport.ProjectXML)
	testsupport.WriteContainer(t, filepath.Join(env.cfg.Watch.Dir, "Broken.prproj"), "<PremiereData/>\n")

	out, _, err = runCLI(t, []string{"watch", "--once"}, env.configPath)
	if err != nil {
		t.Fatalf("watch --once: %v", err)
	}
	requireContains(t, out, "1 succeeded, 1 failed")
	if _, err := os.Stat(env.cfg.LogFile()); err != nil {
		t.Fatalf("expected JSON log file: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Succeeded")
	requireContains(t, out, "Failed")
	requireContains(t, out, "21 -> 1")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []ledger.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run with --limit 1, got %d", len(runs))
	}
}

func TestWatchRequiresDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Watch.Dir = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"watch", "--once"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no watch directory") {
		t.Fatalf("expected missing directory error, got %v", err)
	}
	if got := exitCode(err); got != 1 {
		t.Fatalf("exit code = %d, want 1", got)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsFileAsDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	notDir := filepath.Join(env.baseDir, "watch.txt")
	if err := os.WriteFile(notDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.cfg.Watch.Dir = notDir
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), notDir) {
		t.Fatalf("expected not-a-directory error, got %v", err)
	}
	requireContains(t, out, "[ERROR] "+notDir)
	if strings.Contains(out, "Configuration valid") {
		t.Fatalf("invalid configuration reported as valid:\n%s", out)
	}
}

func TestStageProgressFinishesOnDone(t *testing.T) {
	var buf bytes.Buffer
	progress := newStageProgress(&buf)
	for _, stage := range []pipeline.Stage{pipeline.StageStart, pipeline.StageValidated, pipeline.StageCompressed} {
		progress.OnStage(pipeline.Event{Stage: stage})
	}
	if progress.bar.IsFinished() {
		t.Fatal("bar finished before the run was done")
	}
	progress.OnStage(pipeline.Event{Stage: pipeline.StageDone})
	if !progress.bar.IsFinished() {
		t.Fatal("bar not finished after done")
	}

	var nilProgress *stageProgress
	nilProgress.OnStage(pipeline.Event{Stage: pipeline.StageDone})
}

func TestExitCodeMapping(t *testing.T) {
	if exitCode(nil) != 0 {
		t.Fatal("nil error must exit 0")
	}
	if exitCode(errors.New("plain")) != 1 {
		t.Fatal("untagged error must exit 1")
	}
	want := map[faults.Kind]int{
		faults.KindInvalidExtension: 2,
		faults.KindNotFound:         3,
		faults.KindFormat:           4,
		faults.KindRecordNotFound:   5,
		faults.KindOutputExists:     6,
		faults.KindIO:               7,
		faults.KindInvalidTarget:    8,
	}
	for _, kind := range faults.Kinds {
		if got := exitCode(faults.New(kind, "op", "", "")); got != want[kind] {
			t.Fatalf("exitCode(%s) = %d, want %d", kind, got, want[kind])
		}
	}
}

func TestReportErrorIncludesHint(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, faults.New(faults.KindOutputExists, "validate", "/p/x.prproj", "refusing"))
	requireContains(t, buf.String(), "Error: ")
	requireContains(t, buf.String(), "Hint: ")
}
