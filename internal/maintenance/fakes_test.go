package maintenance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/DEVBOX10/microsoft-scalar/internal/enlistment"
	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/internal/maintenance"
	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
	"github.com/stretchr/testify/require"
)

// Operations recorded by fakeGit.
const (
	opBuiltinCommitGraph = "maintenance:commit-graph"
	opBuiltinLoose       = "maintenance:loose-objects"
	opBuiltinRepack      = "maintenance:incremental-repack"
	opWrite              = "commit-graph-write"
	opVerify             = "commit-graph-verify"
	opPrunePacked        = "prune-packed"
	opMidxExpire         = "midx-expire"
	opMidxRepack         = "midx-repack"
)

const repairMessage = "commit-graph maintenance failed; rewriting from scratch"

// fakeGit records every operation and returns queued exit codes (0 once the
// queue for an operation is empty).
type fakeGit struct {
	mu    sync.Mutex
	calls []string
	exits map[string][]int
	hooks map[string]func(n int)
}

func newFakeGit() *fakeGit {
	return &fakeGit{exits: map[string][]int{}, hooks: map[string]func(int){}}
}

// fail queues exit codes for op.
func (g *fakeGit) fail(op string, codes ...int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.exits[op] = append(g.exits[op], codes...)
}

// on runs fn each time op is invoked, before the result is returned. n is the
// 1-based invocation count of op.
func (g *fakeGit) on(op string, fn func(n int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks[op] = fn
}

func (g *fakeGit) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGit) count(op string) int {
	n := 0
	for _, c := range g.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (g *fakeGit) invoke(op string, args ...string) *gitproc.Result {
	g.mu.Lock()
	g.calls = append(g.calls, op)
	n := 0
	for _, c := range g.calls {
		if c == op {
			n++
		}
	}
	code := 0
	if q := g.exits[op]; len(q) > 0 {
		code, g.exits[op] = q[0], q[1:]
	}
	hook := g.hooks[op]
	g.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	res := &gitproc.Result{Command: "git", Args: args, ExitCode: code}
	if code != 0 {
		res.Errors = "fatal: " + op + " failed"
	}
	return res
}

func (g *fakeGit) Version(ctx context.Context) *gitproc.Result {
	res := g.invoke("version", "version")
	res.Output = "git version 2.40.0"
	return res
}

func (g *fakeGit) MaintenanceRunTask(ctx context.Context, task, objectsRoot string) *gitproc.Result {
	return g.invoke("maintenance:"+task, "maintenance", "run", "--task="+task)
}

func (g *fakeGit) WriteCommitGraph(ctx context.Context, objectsRoot string) *gitproc.Result {
	return g.invoke(opWrite, "commit-graph", "write", "--object-dir", objectsRoot)
}

func (g *fakeGit) VerifyCommitGraph(ctx context.Context, objectsRoot string) *gitproc.Result {
	return g.invoke(opVerify, "commit-graph", "verify", "--object-dir", objectsRoot)
}

func (g *fakeGit) PrunePacked(ctx context.Context, objectsRoot string) *gitproc.Result {
	return g.invoke(opPrunePacked, "prune-packed")
}

func (g *fakeGit) ExpireMultiPackIndex(ctx context.Context, objectsRoot string) *gitproc.Result {
	return g.invoke(opMidxExpire, "multi-pack-index", "expire")
}

func (g *fakeGit) RepackMultiPackIndex(ctx context.Context, objectsRoot, batchSize string) *gitproc.Result {
	return g.invoke(opMidxRepack, "multi-pack-index", "repack", "--batch-size="+batchSize)
}

const (
	legacy  = gitproc.FeatureMultiPackIndex
	builtin = gitproc.FeatureMultiPackIndex | gitproc.FeatureMaintenanceBuiltin
)

type harness struct {
	ec   *maintenance.ExecContext
	git  *fakeGit
	rec  *tracing.Recorder
	stop *maintenance.StopSignal
	fs   *fsutil.FileSystem
	enl  *enlistment.Enlistment
}

func newHarness(t *testing.T, features gitproc.Features) *harness {
	t.Helper()
	enl, err := enlistment.New("/repo", "/repo/.git/objects")
	require.NoError(t, err)

	h := &harness{
		git:  newFakeGit(),
		rec:  tracing.NewRecorder(),
		stop: &maintenance.StopSignal{},
		fs:   fsutil.NewMemory(),
		enl:  enl,
	}
	require.NoError(t, h.fs.MkdirAll(enl.InfoDir()))
	h.ec = maintenance.NewExecContext(enl, h.git, features, h.rec, h.fs, h.stop)
	return h
}

func (h *harness) writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, h.fs.WriteFileAtomic(path, []byte(content), 0644))
}

func (h *harness) messages(level tracing.Level) []string {
	var out []string
	for _, e := range h.rec.EventsAt(level) {
		out = append(out, e.Message)
	}
	return out
}

func (h *harness) repairs() int {
	n := 0
	for _, m := range h.messages(tracing.LevelError) {
		if m == repairMessage {
			n++
		}
	}
	return n
}
