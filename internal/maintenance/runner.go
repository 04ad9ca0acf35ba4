package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
	"github.com/DEVBOX10/microsoft-scalar/pkg/metrics"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
	"github.com/DEVBOX10/microsoft-scalar/pkg/progress"
)

// ObjectCacheLock is the store-wide lock held around lock-requiring steps.
type ObjectCacheLock interface {
	Acquire(ctx context.Context, purpose string) (*model.LockRecord, error)
	Release() error
}

// RunLog records the outcome of every step run. A succeeded record is the
// success marker for its area.
type RunLog interface {
	Append(rec model.RunRecord) error
}

// Runner is the scheduler side of the step contract: it decides whether a
// step may start, holds the object cache lock around it and turns the step's
// telemetry into an outcome.
type Runner struct {
	ec       *ExecContext
	lock     ObjectCacheLock
	runLog   RunLog
	metrics  *metrics.Registry
	progress progress.Callback
	logger   *logging.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithObjectCacheLock sets the lock acquired for lock-requiring steps.
func WithObjectCacheLock(l ObjectCacheLock) Option {
	return func(r *Runner) { r.lock = l }
}

// WithRunLog sets where run records are appended.
func WithRunLog(l RunLog) Option {
	return func(r *Runner) { r.runLog = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithProgress sets the progress callback.
func WithProgress(cb progress.Callback) Option {
	return func(r *Runner) { r.progress = cb }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner for ec.
func NewRunner(ec *ExecContext, opts ...Option) *Runner {
	r := &Runner{
		ec:       ec,
		progress: progress.Noop,
		logger:   logging.Global(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithFields(map[string]any{"component": "maintenance"})
	return r
}

// RunStep runs one step and reports its outcome. The outcome is succeeded
// only when the step logged no errors.
func (r *Runner) RunStep(ctx context.Context, step Step) model.StepOutcome {
	return r.runStep(ctx, step, 1, 1)
}

// RunAll runs steps in order, checking the stop signal before each one.
func (r *Runner) RunAll(ctx context.Context, steps []Step) []model.StepOutcome {
	outcomes := make([]model.StepOutcome, 0, len(steps))
	for i, step := range steps {
		outcomes = append(outcomes, r.runStep(ctx, step, i+1, len(steps)))
	}
	return outcomes
}

// Schedule runs steps every interval until ctx ends or the stop signal is set.
// Stopping is a clean exit and returns nil.
func (r *Runner) Schedule(ctx context.Context, steps []Step, interval time.Duration) error {
	if interval <= 0 {
		return errclass.ErrConfigInvalid.WithMessagef("interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r.RunAll(ctx, steps)
		if r.ec.Stopping() {
			return nil
		}
		select {
		case <-ctx.Done():
			if r.ec.Stopping() {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) runStep(ctx context.Context, step Step, current, total int) model.StepOutcome {
	started := r.now()
	outcome := model.StepOutcome{RunID: uuid.NewString(), Area: step.Area()}
	log := r.logger.WithFields(map[string]any{"area": step.Area(), "run_id": outcome.RunID})

	r.progress(current, total, step.ProgressMessage(), "")

	if reason := r.skipReason(ctx); reason != "" {
		outcome.Result = model.StepSkipped
		outcome.SkipReason = reason
		r.finish(step, started, &outcome, log)
		return outcome
	}

	if step.RequiresObjectCacheLock() && r.lock != nil {
		waitStart := r.now()
		_, err := r.lock.Acquire(ctx, step.Area())
		if r.metrics != nil {
			r.metrics.RecordLockWait(r.now().Sub(waitStart))
		}
		if err != nil {
			outcome.Result = model.StepSkipped
			outcome.SkipReason = err.Error()
			if !lockWaitInterrupted(err) && !r.ec.Stopping() {
				outcome.Result = model.StepFailed
				outcome.Errors = 1
			}
			r.finish(step, started, &outcome, log)
			return outcome
		}
		defer func() {
			if err := r.lock.Release(); err != nil {
				log.ErrorErr("release object cache lock", err)
			}
		}()
	}

	counter := tracing.CountErrors(r.ec.Tracer)
	r.invoke(ctx, step, r.ec.withTracer(counter), counter)

	outcome.Errors = counter.Errors()
	if outcome.Errors == 0 {
		outcome.Result = model.StepSucceeded
	} else {
		outcome.Result = model.StepFailed
	}
	r.finish(step, started, &outcome, log)
	return outcome
}

// invoke runs the step body. A step that breaks its contract by panicking is
// logged as an error against its area.
func (r *Runner) invoke(ctx context.Context, step Step, ec *ExecContext, counter *tracing.ErrorCounter) {
	defer func() {
		if p := recover(); p != nil {
			a := counter.StartActivity(ctx, step.Area(), nil)
			a.RelatedError("step panicked", tracing.Fields{"panic": fmt.Sprint(p)})
			a.End()
		}
	}()
	step.Run(ctx, ec)
}

// lockWaitInterrupted reports lock errors that mean the step never started:
// another holder, or a wait ended by cancellation.
func lockWaitInterrupted(err error) bool {
	return errors.Is(err, errclass.ErrLockConflict) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (r *Runner) skipReason(ctx context.Context) string {
	if r.ec.Stopping() {
		return errclass.ErrStopping.WithMessage("maintenance is stopping").Error()
	}
	if err := ctx.Err(); err != nil {
		return err.Error()
	}
	return ""
}

func (r *Runner) finish(step Step, started time.Time, outcome *model.StepOutcome, log *logging.Logger) {
	outcome.Duration = r.now().Sub(started)

	if r.runLog != nil {
		rec := model.RunRecord{
			RunID:      outcome.RunID,
			Area:       outcome.Area,
			Variant:    r.ec.Commands.Variant,
			StartedAt:  started.UTC(),
			Duration:   outcome.Duration,
			Result:     outcome.Result,
			Errors:     outcome.Errors,
			SkipReason: outcome.SkipReason,
		}
		if err := r.runLog.Append(rec); err != nil {
			log.ErrorErr("append run record", err)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordStep(outcome.Area, string(outcome.Result), outcome.Duration, outcome.Errors)
	}

	fields := map[string]any{
		"result":      string(outcome.Result),
		"errors":      outcome.Errors,
		"duration_ms": outcome.Duration.Milliseconds(),
	}
	switch outcome.Result {
	case model.StepSucceeded:
		log.Info("maintenance step finished", fields)
	case model.StepSkipped:
		fields["reason"] = outcome.SkipReason
		log.Info("maintenance step skipped", fields)
	default:
		if outcome.SkipReason != "" {
			fields["reason"] = outcome.SkipReason
		}
		log.Warn("maintenance step failed", fields)
	}

	r.progress(0, 0, step.ProgressMessage(), outcome.Result)
}
