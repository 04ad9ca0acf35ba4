package maintenance

import (
	"context"

	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

// Tasks of `git maintenance run`.
const (
	TaskCommitGraph       = "commit-graph"
	TaskLooseObjects      = "loose-objects"
	TaskIncrementalRepack = "incremental-repack"
)

// defaultBatchSize bounds the pack-files combined by one multi-pack-index repack.
const defaultBatchSize = "2g"

// Command is one resolved git operation.
type Command struct {
	Name string
	Run  func(ctx context.Context) *gitproc.Result
}

// Available reports whether the command can be issued.
func (c Command) Available() bool {
	return c.Run != nil
}

// Commands holds the git operation for each maintenance action, resolved for
// one variant.
type Commands struct {
	Variant           model.Variant
	WriteCommitGraph  Command
	VerifyCommitGraph Command
	LooseObjects      Command
	// PackfileMaintenance runs in order; empty when git supports neither the
	// builtin task nor the multi-pack-index.
	PackfileMaintenance []Command
}

// ResolveCommands picks the builtin or legacy command for every action from
// features alone.
func ResolveCommands(git Git, features gitproc.Features, objectsRoot string) Commands {
	verify := Command{
		Name: "git commit-graph verify",
		Run: func(ctx context.Context) *gitproc.Result {
			return git.VerifyCommitGraph(ctx, objectsRoot)
		},
	}

	if features.Has(gitproc.FeatureMaintenanceBuiltin) {
		task := func(name string) Command {
			return Command{
				Name: "git maintenance run --task=" + name,
				Run: func(ctx context.Context) *gitproc.Result {
					return git.MaintenanceRunTask(ctx, name, objectsRoot)
				},
			}
		}
		return Commands{
			Variant:             model.VariantBuiltin,
			WriteCommitGraph:    task(TaskCommitGraph),
			VerifyCommitGraph:   verify,
			LooseObjects:        task(TaskLooseObjects),
			PackfileMaintenance: []Command{task(TaskIncrementalRepack)},
		}
	}

	cmds := Commands{
		Variant: model.VariantLegacy,
		WriteCommitGraph: Command{
			Name: "git commit-graph write",
			Run: func(ctx context.Context) *gitproc.Result {
				return git.WriteCommitGraph(ctx, objectsRoot)
			},
		},
		VerifyCommitGraph: verify,
		LooseObjects: Command{
			Name: "git prune-packed",
			Run: func(ctx context.Context) *gitproc.Result {
				return git.PrunePacked(ctx, objectsRoot)
			},
		},
	}
	if features.Has(gitproc.FeatureMultiPackIndex) {
		cmds.PackfileMaintenance = []Command{
			{
				Name: "git multi-pack-index expire",
				Run: func(ctx context.Context) *gitproc.Result {
					return git.ExpireMultiPackIndex(ctx, objectsRoot)
				},
			},
			{
				Name: "git multi-pack-index repack",
				Run: func(ctx context.Context) *gitproc.Result {
					return git.RepackMultiPackIndex(ctx, objectsRoot, defaultBatchSize)
				},
			},
		}
	}
	return cmds
}
