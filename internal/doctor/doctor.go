// Package doctor diagnoses the maintenance state of an enlistment.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DEVBOX10/microsoft-scalar/internal/enlistment"
	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/internal/maintenance"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

// Severities, most severe first.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == SeverityCritical || f.Severity == SeverityError {
		r.Healthy = false
	}
}

// LockStatus reports on the object cache lock.
type LockStatus interface {
	Status() (model.LockState, *model.LockRecord, error)
}

// RunHistory answers when an area last succeeded.
type RunHistory interface {
	LastSuccess(area string) (*model.RunRecord, error)
}

// Verifier runs `git commit-graph verify`.
type Verifier interface {
	VerifyCommitGraph(ctx context.Context, objectsRoot string) *gitproc.Result
}

// Doctor performs enlistment health checks.
type Doctor struct {
	Enlistment *enlistment.Enlistment
	FileSystem *fsutil.FileSystem
	Lock       LockStatus
	Runs       RunHistory
	Git        Verifier
	Features   gitproc.Features
	// StaleAfter is how old the last successful commit-graph run may be.
	StaleAfter time.Duration
	Now        func() time.Time
}

// Check runs all diagnostic checks. Strict mode also verifies the
// commit-graph with git.
func (d *Doctor) Check(ctx context.Context, strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	if !d.checkObjectsRoot(result) {
		return result, nil
	}
	lockState := d.checkObjectCacheLock(result)
	d.checkChainLock(result, lockState)
	d.checkVariant(result)
	if err := d.checkLastCommitGraph(result); err != nil {
		return nil, err
	}
	d.checkOrphanTmp(result)
	if strict {
		d.checkCommitGraphVerify(ctx, result)
	}
	return result, nil
}

func (d *Doctor) checkObjectsRoot(result *Result) bool {
	if d.FileSystem.DirectoryExists(d.Enlistment.ObjectsRoot) {
		return true
	}
	result.add(Finding{
		Category:    "objects",
		Description: "objects root does not exist",
		Severity:    SeverityCritical,
		Path:        d.Enlistment.ObjectsRoot,
	})
	return false
}

func (d *Doctor) checkObjectCacheLock(result *Result) model.LockState {
	if d.Lock == nil {
		return model.LockStateFree
	}
	state, rec, err := d.Lock.Status()
	if err != nil {
		result.add(Finding{
			Category:    "lock",
			Description: fmt.Sprintf("cannot read object cache lock: %v", err),
			Severity:    SeverityError,
			Path:        d.Enlistment.ObjectCacheLockPath(),
		})
		return model.LockStateFree
	}
	if state == model.LockStateHeld {
		holder := "unknown holder"
		if rec != nil {
			holder = fmt.Sprintf("pid %d on %s for %s since %s",
				rec.PID, rec.Host, rec.Purpose, rec.AcquiredAt.Format(time.RFC3339))
		}
		result.add(Finding{
			Category:    "lock",
			Description: "object cache lock held by " + holder,
			Severity:    SeverityInfo,
			Path:        d.Enlistment.ObjectCacheLockPath(),
		})
	}
	return state
}

// checkChainLock flags a chain lock nobody can be writing: maintenance
// writes the commit-graph only while holding the object cache lock.
func (d *Doctor) checkChainLock(result *Result, lockState model.LockState) {
	path := d.Enlistment.CommitGraphChainLock()
	if lockState == model.LockStateHeld || !d.FileSystem.FileExists(path) {
		return
	}
	result.add(Finding{
		Category:    "commit-graph",
		Description: "stale commit-graph chain lock; the next commit-graph run removes it",
		Severity:    SeverityWarning,
		Path:        path,
	})
}

func (d *Doctor) checkVariant(result *Result) {
	variant := model.VariantLegacy
	if d.Features.Has(gitproc.FeatureMaintenanceBuiltin) {
		variant = model.VariantBuiltin
	}
	result.add(Finding{
		Category:    "git",
		Description: fmt.Sprintf("maintenance commands: %s (features: %s)", variant, d.Features),
		Severity:    SeverityInfo,
	})
}

func (d *Doctor) checkLastCommitGraph(result *Result) error {
	if d.Runs == nil {
		return nil
	}
	rec, err := d.Runs.LastSuccess(maintenance.CommitGraphArea)
	if err != nil {
		return fmt.Errorf("read run log: %w", err)
	}
	if rec == nil {
		result.add(Finding{
			Category:    "commit-graph",
			Description: "no successful commit-graph run recorded",
			Severity:    SeverityWarning,
			Path:        d.Enlistment.RunLogPath(),
		})
		return nil
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	if age := now().Sub(rec.StartedAt); d.StaleAfter > 0 && age > d.StaleAfter {
		result.add(Finding{
			Category: "commit-graph",
			Description: fmt.Sprintf("last successful commit-graph run was %s ago (limit %s)",
				age.Round(time.Minute), d.StaleAfter),
			Severity: SeverityWarning,
			Path:     d.Enlistment.RunLogPath(),
		})
	}
	return nil
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	for _, dir := range []string{d.Enlistment.MetadataDir(), d.Enlistment.LogsDir(), d.Enlistment.InfoDir()} {
		items, err := d.FileSystem.ItemsInDirectory(dir)
		if err != nil {
			continue
		}
		for _, item := range items {
			if strings.HasPrefix(item.Name, ".scalar-tmp-") {
				result.add(Finding{
					Category:    "tmp",
					Description: fmt.Sprintf("orphan temp file: %s", item.Name),
					Severity:    SeverityInfo,
					Path:        item.Path,
				})
			}
		}
	}
}

func (d *Doctor) checkCommitGraphVerify(ctx context.Context, result *Result) {
	if d.Git == nil {
		return
	}
	res := d.Git.VerifyCommitGraph(ctx, d.Enlistment.ObjectsRoot)
	if res.ExitCodeIsFailure() {
		result.add(Finding{
			Category: "commit-graph",
			Description: fmt.Sprintf("commit-graph verify failed (exit %d): %s",
				res.ExitCode, strings.TrimSpace(res.Errors)),
			Severity: SeverityCritical,
			Path:     d.Enlistment.CommitGraphsDir(),
		})
	}
}
