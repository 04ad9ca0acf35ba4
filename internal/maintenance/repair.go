package maintenance

import (
	"path/filepath"
	"strings"

	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
)

// Failure is the git invocation that triggered a repair.
type Failure struct {
	Command string
	Result  *gitproc.Result
}

// RepairAndRewrite logs the failure, discards the incremental commit-graph
// chain and writes it again from scratch. It does not verify the result; a
// failed rewrite is logged as a warning only.
func RepairAndRewrite(ec *ExecContext, activity tracing.Activity, failed Failure) {
	e := ec.Enlistment
	activity.RelatedError("commit-graph maintenance failed; rewriting from scratch",
		resultFields(e.ObjectsRoot, failed.Command, failed.Result))

	for _, path := range chainStatePaths(ec, activity) {
		if !ec.FileSystem.TryDeleteFile(path) {
			activity.RelatedWarning("failed to delete commit-graph chain state", tracing.Fields{
				"path": path,
			})
		}
	}

	write := ec.Commands.WriteCommitGraph
	res := write.Run(activity.Context())
	if res.ExitCodeIsFailure() {
		activity.RelatedWarning("commit-graph rewrite failed",
			resultFields(e.ObjectsRoot, write.Name, res))
	}
}

// chainStatePaths lists the chain file, split graph layers and chain lock.
func chainStatePaths(ec *ExecContext, activity tracing.Activity) []string {
	e := ec.Enlistment
	paths := []string{e.CommitGraphChainFile()}

	dir := e.CommitGraphsDir()
	if ec.FileSystem.DirectoryExists(dir) {
		items, err := ec.FileSystem.ItemsInDirectory(dir)
		if err != nil {
			warnListFailed(activity, dir, err)
		}
		for _, item := range items {
			if !item.IsDir && strings.HasPrefix(item.Name, "graph-") && filepath.Ext(item.Name) == ".graph" {
				paths = append(paths, item.Path)
			}
		}
	}
	return append(paths, e.CommitGraphChainLock())
}
