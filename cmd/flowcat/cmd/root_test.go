package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vflow-stack/flowcat/internal/config"
	"github.com/vflow-stack/flowcat/internal/console"
	ferrors "github.com/vflow-stack/flowcat/internal/errors"
	"github.com/vflow-stack/flowcat/internal/indexer"
	"github.com/vflow-stack/flowcat/internal/testutil"
)

// resetFlags restores package-level flag state after a test.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		verbose = false
		dryRun = false
		watchMode = false
		validateFormat = "text"
		showJSON = false
	})
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRootCmdFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
	for _, name := range []string{"dry-run", "watch"} {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	want := map[string]bool{"validate": false, "show": false}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %q subcommand", name)
		}
	}
}

func TestRunIndex(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	testutil.WriteValid(t, dir, "b")
	testutil.WriteValid(t, dir, "a")

	cmd, buf := newTestCmd()
	if err := runIndex(cmd, []string{dir}); err != nil {
		t.Fatalf("runIndex() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Scanning directory: "+dir) {
		t.Errorf("output missing scan header:\n%s", out)
	}
	if !strings.Contains(out, "Indexed 2 workflow(s)") {
		t.Errorf("output missing summary:\n%s", out)
	}

	catalog := testutil.ReadJSON(t, filepath.Join(dir, "index.json"))
	if catalog["total_count"] != float64(2) {
		t.Errorf("total_count = %v, want 2", catalog["total_count"])
	}
}

func TestRunIndex_InvalidFileExitsOne(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	testutil.WriteValid(t, dir, "good")
	testutil.WriteJSON(t, dir, "bar.json", testutil.ValidWorkflow("foo"))

	cmd, buf := newTestCmd()
	err := runIndex(cmd, []string{dir})
	if err == nil {
		t.Fatal("expected error for invalid workflow")
	}
	if !errors.Is(err, errValidationFailed) {
		t.Errorf("error = %v, want errValidationFailed", err)
	}
	if got := ferrors.ExitCode(err); got != ferrors.ExitInvalid {
		t.Errorf("ExitCode = %d, want %d", got, ferrors.ExitInvalid)
	}

	// The catalog is still written with the valid entries
	if _, err := os.Stat(filepath.Join(dir, "index.json")); err != nil {
		t.Errorf("catalog not written: %v", err)
	}
	if !strings.Contains(buf.String(), "Validation failed:") {
		t.Errorf("output missing failure list:\n%s", buf.String())
	}
}

func TestRunIndex_MissingDirExitsTwo(t *testing.T) {
	resetFlags(t)
	dir := filepath.Join(t.TempDir(), "absent")

	cmd, _ := newTestCmd()
	err := runIndex(cmd, []string{dir})
	if got := ferrors.ExitCode(err); got != ferrors.ExitNoScan {
		t.Errorf("ExitCode = %d, want %d (err = %v)", got, ferrors.ExitNoScan, err)
	}
}

func TestRunIndex_DryRun(t *testing.T) {
	resetFlags(t)
	dryRun = true
	dir := t.TempDir()
	path := testutil.WriteValid(t, dir, "a")
	before := testutil.ReadBytes(t, path)

	cmd, buf := newTestCmd()
	if err := runIndex(cmd, []string{dir}); err != nil {
		t.Fatalf("runIndex() error = %v", err)
	}

	if !bytes.Equal(before, testutil.ReadBytes(t, path)) {
		t.Error("dry run modified a workflow file")
	}
	if _, err := os.Stat(filepath.Join(dir, "index.json")); !os.IsNotExist(err) {
		t.Error("dry run wrote the catalog")
	}
	if !strings.Contains(buf.String(), "would be indexed") {
		t.Errorf("output missing dry run summary:\n%s", buf.String())
	}
}

func TestRunIndex_ConfigFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	testutil.WriteValid(t, dir, "a")

	configPath = filepath.Join(t.TempDir(), "flowcat.toml")
	content := `[catalog]
file_name = "catalog.json"
download_base_url = "https://example.com/flows/"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, _ := newTestCmd()
	if err := runIndex(cmd, []string{dir}); err != nil {
		t.Fatalf("runIndex() error = %v", err)
	}

	catalog := testutil.ReadJSON(t, filepath.Join(dir, "catalog.json"))
	entries := catalog["workflows"].([]any)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if url := entries[0].(map[string]any)["download_url"]; url != "https://example.com/flows/a.json" {
		t.Errorf("download_url = %v", url)
	}
}

func TestRunIndex_MissingConfigFile(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "nope.toml")

	cmd, _ := newTestCmd()
	if err := runIndex(cmd, []string{t.TempDir()}); err == nil {
		t.Error("expected error for an explicit config path that does not exist")
	}
}

func TestRunIndex_InvalidConfig(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "flowcat.toml")
	if err := os.WriteFile(configPath, []byte("[catalog]\nfile_name = \"index.txt\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, _ := newTestCmd()
	err := runIndex(cmd, []string{t.TempDir()})
	if !ferrors.HasCode(err, ferrors.CodeConfigInvalidValue) {
		t.Fatalf("expected %s, got %v", ferrors.CodeConfigInvalidValue, err)
	}
	if !strings.Contains(err.Error(), ".json") {
		t.Errorf("error %q does not explain the file name rule", err)
	}
}

func TestIndexOnce_LogsDirOnce(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteValid(t, dir, "a")
	testutil.WriteRaw(t, dir, "bad.json", "{}")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts := indexer.OptionsFromConfig(config.Default(), dir)
	var out bytes.Buffer

	err := indexOnce(context.Background(), opts, logger, console.NewPrinter(&out))
	if !errors.Is(err, errValidationFailed) {
		t.Fatalf("indexOnce() error = %v, want errValidationFailed", err)
	}

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected log output")
	}
	for _, line := range lines {
		if n := strings.Count(line, " dir="); n != 1 {
			t.Errorf("dir attribute appears %d times in %q", n, line)
		}
	}
}
