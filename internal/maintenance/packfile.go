package maintenance

import (
	"context"

	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
)

// PackfileArea identifies pack-file runs in traces and the run log.
const PackfileArea = "PackfileMaintenanceStep"

// PackfileMaintenanceStep expires unreferenced pack-files and combines small
// ones through the multi-pack-index.
type PackfileMaintenanceStep struct{}

func NewPackfileMaintenanceStep() *PackfileMaintenanceStep { return &PackfileMaintenanceStep{} }

func (s *PackfileMaintenanceStep) Area() string { return PackfileArea }

func (s *PackfileMaintenanceStep) ProgressMessage() string { return "Cleaning up pack-files" }

func (s *PackfileMaintenanceStep) RequiresObjectCacheLock() bool { return true }

// Run issues the resolved commands in order, stopping at the first failure.
// The stop signal is checked between commands.
func (s *PackfileMaintenanceStep) Run(ctx context.Context, ec *ExecContext) {
	inActivity(ctx, ec, "TryPackfileMaintenance", tracing.Fields{
		"area":         PackfileArea,
		"objects_root": ec.Enlistment.ObjectsRoot,
		"variant":      string(ec.Commands.Variant),
	}, func(activity tracing.Activity) {
		cmds := ec.Commands.PackfileMaintenance
		if len(cmds) == 0 {
			activity.RelatedWarning("git supports neither maintenance run nor multi-pack-index; skipping", nil)
			return
		}
		for i, cmd := range cmds {
			if i > 0 && ec.Stopping() {
				activity.RelatedInfo("stopping before %s", cmd.Name)
				return
			}
			res := cmd.Run(activity.Context())
			if res.ExitCodeIsFailure() {
				activity.RelatedError("pack-file maintenance failed",
					resultFields(ec.Enlistment.ObjectsRoot, cmd.Name, res))
				return
			}
		}
	})
}
