package maintenance

import (
	"context"
	"strings"

	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
)

const (
	// CommitGraphArea identifies commit-graph runs in traces and the run log.
	CommitGraphArea = "CommitGraphStep"

	commitGraphActivity = "TryWriteGitCommitGraph"
	commitGraphListing  = "commit-graph list after write: "
)

// CommitGraphStep writes the incremental commit-graph chain, verifies it and
// rebuilds it from scratch when either fails.
type CommitGraphStep struct {
	requireObjectCacheLock bool
}

// NewCommitGraphStep returns a commit-graph step. Steps scheduled by the
// runner normally require the object cache lock.
func NewCommitGraphStep(requireObjectCacheLock bool) *CommitGraphStep {
	return &CommitGraphStep{requireObjectCacheLock: requireObjectCacheLock}
}

func (s *CommitGraphStep) Area() string { return CommitGraphArea }

func (s *CommitGraphStep) ProgressMessage() string { return "Updating commit-graph" }

func (s *CommitGraphStep) RequiresObjectCacheLock() bool { return s.requireObjectCacheLock }

// Run executes the phases in order: reset the chain lock, write, list the
// commit-graph directory, repair a failed write, verify, and repair a failed
// verify unless the scheduler is stopping.
func (s *CommitGraphStep) Run(ctx context.Context, ec *ExecContext) {
	e := ec.Enlistment
	inActivity(ctx, ec, commitGraphActivity, tracing.Fields{
		"area":         CommitGraphArea,
		"objects_root": e.ObjectsRoot,
		"variant":      string(ec.Commands.Variant),
	}, func(activity tracing.Activity) {
		ctx := activity.Context()

		// A crashed writer can leave the chain lock behind; git would then
		// refuse to write. Best effort only.
		ec.FileSystem.TryDeleteFile(e.CommitGraphChainLock())

		write := ec.Commands.WriteCommitGraph
		writeResult := write.Run(ctx)

		activity.RelatedInfo("%s%s", commitGraphListing, commitGraphDirListing(ec, activity))

		// Write failure is repaired even when stopping; verify failure below
		// is not.
		// TODO: decide whether the two repair paths should check Stopping
		// the same way.
		if writeResult.ExitCodeIsFailure() {
			RepairAndRewrite(ec, activity, Failure{Command: write.Name, Result: writeResult})
		}

		verify := ec.Commands.VerifyCommitGraph
		verifyResult := verify.Run(ctx)
		if verifyResult.ExitCodeIsFailure() {
			if ec.Stopping() {
				activity.RelatedError("commit-graph verify failed; skipping rewrite while stopping",
					resultFields(e.ObjectsRoot, verify.Name, verifyResult))
				return
			}
			RepairAndRewrite(ec, activity, Failure{Command: verify.Name, Result: verifyResult})
		}
	})
}

// commitGraphDirListing returns every entry name in the commit-graph
// directory followed by ';'. A missing directory lists as "". A directory that
// cannot be read also lists as "" and is reported as a warning.
func commitGraphDirListing(ec *ExecContext, activity tracing.Activity) string {
	dir := ec.Enlistment.CommitGraphsDir()
	if !ec.FileSystem.DirectoryExists(dir) {
		return ""
	}
	items, err := ec.FileSystem.ItemsInDirectory(dir)
	if err != nil {
		warnListFailed(activity, dir, err)
		return ""
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Name)
		sb.WriteString(";")
	}
	return sb.String()
}

func warnListFailed(activity tracing.Activity, dir string, err error) {
	activity.RelatedWarning("failed to list commit-graph directory", tracing.Fields{
		"path":  dir,
		"error": err.Error(),
	})
}
