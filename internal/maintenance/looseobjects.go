package maintenance

import (
	"context"

	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
)

// LooseObjectsArea identifies loose-object runs in traces and the run log.
const LooseObjectsArea = "LooseObjectsStep"

// LooseObjectsStep removes loose objects that already live in a pack.
type LooseObjectsStep struct{}

func NewLooseObjectsStep() *LooseObjectsStep { return &LooseObjectsStep{} }

func (s *LooseObjectsStep) Area() string { return LooseObjectsArea }

func (s *LooseObjectsStep) ProgressMessage() string { return "Cleaning up loose objects" }

func (s *LooseObjectsStep) RequiresObjectCacheLock() bool { return true }

func (s *LooseObjectsStep) Run(ctx context.Context, ec *ExecContext) {
	inActivity(ctx, ec, "TryCleanLooseObjects", tracing.Fields{
		"area":         LooseObjectsArea,
		"objects_root": ec.Enlistment.ObjectsRoot,
		"variant":      string(ec.Commands.Variant),
	}, func(activity tracing.Activity) {
		cmd := ec.Commands.LooseObjects
		res := cmd.Run(activity.Context())
		if res.ExitCodeIsFailure() {
			activity.RelatedError("loose object cleanup failed",
				resultFields(ec.Enlistment.ObjectsRoot, cmd.Name, res))
		}
	})
}
