package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestRun_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"--help"}} {
		out := captureStdout(t)
		if err := run(args); err != nil {
			t.Fatalf("run(%v): %v", args, err)
		}
		for _, name := range []string{"run", "trace", "config", "version"} {
			if !strings.Contains(out.String(), "  "+name) {
				t.Errorf("run(%v): help does not list %q", args, name)
			}
		}
	}
}

func TestRun_CommandHelp(t *testing.T) {
	out := captureStdout(t)
	if err := run([]string{"trace", "--help"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "fiber trace [--slice N]") {
		t.Errorf("unexpected help:\n%s", out)
	}
}

func TestRun_Version(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"-v"}} {
		out := captureStdout(t)
		if err := run(args); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(out.String(), "fiber version "+Version) {
			t.Errorf("run(%v) = %q", args, out)
		}
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	captureStdout(t)
	if err := run([]string{"deploy"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected unknown command error, got %v", err)
	}
}

func TestRun_ConfigFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fiber.yaml"), []byte("scheduler:\n  maxUnitsPerSlice: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := captureStdout(t)
	if err := run([]string{"--config", dir, "config"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "maxUnitsPerSlice: 7") {
		t.Errorf("config output:\n%s", out)
	}

	out.Reset()
	if err := run([]string{"--config=" + dir, "trace", "--query", "slice"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "7" {
		t.Errorf("trace slice = %q, want 7", out)
	}

	if err := run([]string{"--config"}); err == nil {
		t.Error("expected an error for --config without a value")
	}
}

func TestRun_BadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fiber.yaml"), []byte("version: v2.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	captureStdout(t)
	err := run([]string{"--config", dir, "config"})
	if err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("expected a version error, got %v", err)
	}
}
