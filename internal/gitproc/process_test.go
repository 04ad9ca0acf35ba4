package gitproc_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit writes a shell script that echoes its arguments and
// GIT_OBJECT_DIRECTORY, and exits with the code in FAKE_GIT_EXIT.
func fakeGit(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake git script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "git")
	script := `#!/bin/sh
echo "args:$*"
echo "objdir:${GIT_OBJECT_DIRECTORY}"
echo "stderr:$1" >&2
exit ${FAKE_GIT_EXIT:-0}
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestInvoke_CapturesOutput(t *testing.T) {
	p := gitproc.NewProcess(fakeGit(t), t.TempDir())
	res := p.WriteCommitGraph(context.Background(), "/objects")

	assert.True(t, res.ExitCodeIsSuccess())
	assert.Contains(t, res.Output, "args:commit-graph write --reachable --split --size-multiple=4 --object-dir /objects")
	assert.Contains(t, res.Errors, "stderr:commit-graph")
	assert.Equal(t, []string{"commit-graph", "write", "--reachable", "--split", "--size-multiple=4", "--object-dir", "/objects"}, res.Args)
}

func TestInvoke_ExitCode(t *testing.T) {
	t.Setenv("FAKE_GIT_EXIT", "3")
	p := gitproc.NewProcess(fakeGit(t), t.TempDir())
	res := p.VerifyCommitGraph(context.Background(), "/objects")

	assert.True(t, res.ExitCodeIsFailure())
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "args:commit-graph verify --shallow --object-dir /objects")
}

func TestInvoke_ObjectDirectoryEnv(t *testing.T) {
	p := gitproc.NewProcess(fakeGit(t), t.TempDir())

	res := p.MaintenanceRunTask(context.Background(), "commit-graph", "/cache/objects")
	assert.Contains(t, res.Output, "args:maintenance run --task=commit-graph --quiet")
	assert.Contains(t, res.Output, "objdir:/cache/objects")

	res = p.PrunePacked(context.Background(), "/cache/objects")
	assert.Contains(t, res.Output, "args:prune-packed -q")
	assert.Contains(t, res.Output, "objdir:/cache/objects")
}

func TestInvoke_MultiPackIndex(t *testing.T) {
	p := gitproc.NewProcess(fakeGit(t), t.TempDir())

	res := p.ExpireMultiPackIndex(context.Background(), "/o")
	assert.Contains(t, res.Output, "args:multi-pack-index expire --object-dir /o")

	res = p.RepackMultiPackIndex(context.Background(), "/o", "2g")
	assert.Contains(t, res.Output, "args:multi-pack-index repack --object-dir /o --batch-size=2g")
}

func TestInvoke_MissingBinary(t *testing.T) {
	p := gitproc.NewProcess(filepath.Join(t.TempDir(), "no-such-git"), t.TempDir())
	res := p.Version(context.Background())

	assert.Equal(t, -1, res.ExitCode)
	assert.True(t, res.ExitCodeIsFailure())
	assert.NotEmpty(t, res.Errors)
}

func TestInvoke_CancelledContextStillRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := gitproc.NewProcess(fakeGit(t), t.TempDir())
	res := p.Version(ctx)
	assert.True(t, res.ExitCodeIsSuccess())
	assert.True(t, strings.HasPrefix(res.Output, "args:version"))
}

func TestResult_CommandLine(t *testing.T) {
	r := &gitproc.Result{Command: "git", Args: []string{"commit-graph", "verify"}}
	assert.Equal(t, "git commit-graph verify", r.CommandLine())
}
