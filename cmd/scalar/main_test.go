package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getProjectRoot returns the absolute path to the project root.
func getProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err)
	// Walk up to find go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	t.Fatal("go.mod not found")
	return ""
}

// buildBinary compiles cmd/scalar into a temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping build test in short mode")
	}
	binPath := filepath.Join(t.TempDir(), "scalar-test")
	buildCmd := exec.Command("go", "build", "-o", binPath, ".")
	buildCmd.Dir = filepath.Join(getProjectRoot(t), "cmd", "scalar")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(output))
	return binPath
}

func TestMainHelpFlag(t *testing.T) {
	binPath := buildBinary(t)

	out, err := exec.Command(binPath, "--help").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Scalar")
	assert.Contains(t, string(out), "schedule")
}

func TestMainUnknownCommand(t *testing.T) {
	binPath := buildBinary(t)

	out, err := exec.Command(binPath, "unknown-command-xyz").CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(string(out)), "unknown")
}

func TestMainOutsideEnlistment(t *testing.T) {
	binPath := buildBinary(t)

	cmd := exec.Command(binPath, "lock", "status")
	cmd.Dir = t.TempDir()
	out, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(out), "no git enlistment found")
}

func TestMainEntryPoints(t *testing.T) {
	_ = main
}

func TestBinaryRunAndHistory(t *testing.T) {
	binPath := buildBinary(t)

	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git", "objects"), 0755))
	fakeGit := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(fakeGit,
		[]byte("#!/bin/sh\nif [ \"$1\" = \"version\" ]; then echo \"git version 2.25.0\"; fi\nexit 0\n"), 0755))

	run := func(args ...string) string {
		cmd := exec.Command(binPath, args...)
		cmd.Dir = repo
		cmd.Env = append(os.Environ(), "SCALAR_GIT_PATH="+fakeGit)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "%v failed: %s", args, string(out))
		return string(out)
	}

	out := run("run", "commit-graph")
	assert.Contains(t, out, "CommitGraphStep")

	out = run("--json", "history")
	assert.Contains(t, out, `"variant": "legacy"`)
}
