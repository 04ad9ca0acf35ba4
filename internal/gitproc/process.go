// Package gitproc runs the git binary and captures its results.
package gitproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
)

// Result captures one git invocation. Failures to start the process are
// reported here too, with ExitCode -1, never as a Go error.
type Result struct {
	Command  string        `json:"command"`
	Args     []string      `json:"args"`
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"output,omitempty"`
	Errors   string        `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ExitCodeIsSuccess reports a zero exit code.
func (r *Result) ExitCodeIsSuccess() bool {
	return r.ExitCode == 0
}

// ExitCodeIsFailure reports a non-zero exit code.
func (r *Result) ExitCodeIsFailure() bool {
	return !r.ExitCodeIsSuccess()
}

// CommandLine returns the invocation as it would be typed.
func (r *Result) CommandLine() string {
	return strings.TrimSpace(r.Command + " " + strings.Join(r.Args, " "))
}

// Process invokes git for one working directory.
type Process struct {
	gitPath string
	workDir string
	logger  *logging.Logger
}

// NewProcess creates a Process. An empty gitPath means "git" from PATH.
func NewProcess(gitPath, workDir string) *Process {
	if gitPath == "" {
		gitPath = "git"
	}
	return &Process{
		gitPath: gitPath,
		workDir: workDir,
		logger:  logging.WithFields(map[string]any{"component": "gitproc"}),
	}
}

// Invoke runs git with args and extra environment.
// The subprocess is detached from ctx cancellation: once started it runs to
// completion, and callers observe cancellation between invocations.
func (p *Process) Invoke(ctx context.Context, env map[string]string, args ...string) *Result {
	res := &Result{Command: p.gitPath, Args: args}

	cmd := exec.CommandContext(context.WithoutCancel(ctx), p.gitPath, args...)
	cmd.Dir = p.workDir
	if len(env) > 0 {
		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Env = cmd.Environ()
		for _, k := range keys {
			cmd.Env = append(cmd.Env, k+"="+env[k])
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Output = stdout.String()
	res.Errors = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			if res.Errors == "" {
				res.Errors = err.Error()
			} else {
				res.Errors = fmt.Sprintf("%s\n%s", res.Errors, err.Error())
			}
		}
	}

	p.logger.WithContext(ctx).Debug("git invocation", map[string]any{
		"args":        strings.Join(args, " "),
		"exit_code":   res.ExitCode,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res
}

// Version runs `git version`.
func (p *Process) Version(ctx context.Context) *Result {
	return p.Invoke(ctx, nil, "version")
}

// MaintenanceRunTask runs one task of `git maintenance run` against the
// object store at objectsRoot.
func (p *Process) MaintenanceRunTask(ctx context.Context, task, objectsRoot string) *Result {
	return p.Invoke(ctx,
		map[string]string{"GIT_OBJECT_DIRECTORY": objectsRoot},
		"maintenance", "run", "--task="+task, "--quiet")
}

// WriteCommitGraph writes an incremental split commit-graph for objectsRoot.
func (p *Process) WriteCommitGraph(ctx context.Context, objectsRoot string) *Result {
	return p.Invoke(ctx, nil,
		"commit-graph", "write", "--reachable", "--split", "--size-multiple=4",
		"--object-dir", objectsRoot)
}

// VerifyCommitGraph checks the tip layer of the commit-graph for objectsRoot.
func (p *Process) VerifyCommitGraph(ctx context.Context, objectsRoot string) *Result {
	return p.Invoke(ctx, nil,
		"commit-graph", "verify", "--shallow", "--object-dir", objectsRoot)
}

// PrunePacked removes loose objects that are already in a pack.
func (p *Process) PrunePacked(ctx context.Context, objectsRoot string) *Result {
	return p.Invoke(ctx,
		map[string]string{"GIT_OBJECT_DIRECTORY": objectsRoot},
		"prune-packed", "-q")
}

// ExpireMultiPackIndex deletes pack-files no longer referenced by the
// multi-pack-index.
func (p *Process) ExpireMultiPackIndex(ctx context.Context, objectsRoot string) *Result {
	return p.Invoke(ctx, nil, "multi-pack-index", "expire", "--object-dir", objectsRoot)
}

// RepackMultiPackIndex combines small pack-files up to batchSize.
func (p *Process) RepackMultiPackIndex(ctx context.Context, objectsRoot, batchSize string) *Result {
	return p.Invoke(ctx, nil,
		"multi-pack-index", "repack", "--object-dir", objectsRoot, "--batch-size="+batchSize)
}
