// Package maintenance runs lock-guarded upkeep steps against a git object
// store.
package maintenance

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/DEVBOX10/microsoft-scalar/internal/enlistment"
	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
)

// Step is one schedulable unit of maintenance.
//
// Run never panics past its boundary. Faults inside the body are recovered
// and logged as errors on the step's activity; the scheduler derives the
// outcome of the run from those errors.
type Step interface {
	// Area is the stable identifier used for tracing and the run log.
	Area() string
	// ProgressMessage describes the step for progress output.
	ProgressMessage() string
	// RequiresObjectCacheLock reports whether the scheduler must hold the
	// object cache lock while the body runs.
	RequiresObjectCacheLock() bool
	Run(ctx context.Context, ec *ExecContext)
}

// Git is the git surface steps use. *gitproc.Process implements it.
type Git interface {
	gitproc.Versioner
	MaintenanceRunTask(ctx context.Context, task, objectsRoot string) *gitproc.Result
	WriteCommitGraph(ctx context.Context, objectsRoot string) *gitproc.Result
	VerifyCommitGraph(ctx context.Context, objectsRoot string) *gitproc.Result
	PrunePacked(ctx context.Context, objectsRoot string) *gitproc.Result
	ExpireMultiPackIndex(ctx context.Context, objectsRoot string) *gitproc.Result
	RepackMultiPackIndex(ctx context.Context, objectsRoot, batchSize string) *gitproc.Result
}

// StopSignal is a polled shutdown request. The zero value is not stopping.
type StopSignal struct {
	stopping atomic.Bool
}

// Stop requests that running steps skip optional work and that no further
// steps start.
func (s *StopSignal) Stop() {
	s.stopping.Store(true)
}

// Stopping reports whether Stop has been called. A nil signal never stops.
func (s *StopSignal) Stopping() bool {
	return s != nil && s.stopping.Load()
}

// ExecContext is everything a step may touch.
type ExecContext struct {
	Enlistment *enlistment.Enlistment
	Git        Git
	Features   gitproc.Features
	Commands   Commands
	Tracer     tracing.Tracer
	FileSystem *fsutil.FileSystem
	Stop       *StopSignal
}

// NewExecContext builds a context and resolves the command variant once.
func NewExecContext(e *enlistment.Enlistment, git Git, features gitproc.Features,
	tracer tracing.Tracer, fs *fsutil.FileSystem, stop *StopSignal) *ExecContext {
	return &ExecContext{
		Enlistment: e,
		Git:        git,
		Features:   features,
		Commands:   ResolveCommands(git, features, e.ObjectsRoot),
		Tracer:     tracer,
		FileSystem: fs,
		Stop:       stop,
	}
}

// Stopping reports whether the scheduler has asked steps to wind down.
func (ec *ExecContext) Stopping() bool {
	return ec.Stop.Stopping()
}

// withTracer returns a shallow copy of ec using t.
func (ec *ExecContext) withTracer(t tracing.Tracer) *ExecContext {
	cp := *ec
	cp.Tracer = t
	return &cp
}

// inActivity runs body inside one activity and converts a panic into an
// error on that activity.
func inActivity(ctx context.Context, ec *ExecContext, name string, fields tracing.Fields, body func(tracing.Activity)) {
	activity := ec.Tracer.StartActivity(ctx, name, fields)
	defer activity.End()
	defer func() {
		if r := recover(); r != nil {
			activity.RelatedError(fmt.Sprintf("%s: unexpected failure", name), tracing.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
		}
	}()
	body(activity)
}

// resultFields describes a failed git invocation for telemetry.
func resultFields(objectsRoot, command string, res *gitproc.Result) tracing.Fields {
	return tracing.Fields{
		"objects_root": objectsRoot,
		"command":      command,
		"exit_code":    res.ExitCode,
		"errors":       res.Errors,
	}
}
