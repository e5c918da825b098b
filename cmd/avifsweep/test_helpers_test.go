package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	logDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	logDir := filepath.Join(base, "logs")
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, logDir)

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		logDir:     logDir,
	}
}

func writeTestConfig(t *testing.T, path, logDir string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\n\n[workflow]\nworkers = 2\n\n[logging]\nformat = \"json\"\nlevel = \"warn\"\n",
		logDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
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

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// installFakeBinary drops an executable stub named command into dir and returns
// dir so callers can prepend it to PATH.
func installFakeBinary(t *testing.T, dir, command string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries require a POSIX shell")
	}
	path := filepath.Join(dir, command)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
}
