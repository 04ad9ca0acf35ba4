package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/DEVBOX10/microsoft-scalar/internal/audit"
	"github.com/DEVBOX10/microsoft-scalar/internal/enlistment"
	"github.com/DEVBOX10/microsoft-scalar/internal/gitproc"
	"github.com/DEVBOX10/microsoft-scalar/internal/lock"
	"github.com/DEVBOX10/microsoft-scalar/internal/maintenance"
	"github.com/DEVBOX10/microsoft-scalar/internal/tracing"
	"github.com/DEVBOX10/microsoft-scalar/pkg/config"
	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
	"github.com/DEVBOX10/microsoft-scalar/pkg/metrics"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
	"github.com/DEVBOX10/microsoft-scalar/pkg/progress"
)

// requireEnlistment discovers the enlistment from CWD and loads its config,
// or exits with error. The configured objects root, if any, is applied.
func requireEnlistment() (*enlistment.Enlistment, *config.Config) {
	cwd, err := os.Getwd()
	if err != nil {
		fmtErr("cannot get current directory: %v", err)
		os.Exit(1)
	}
	e, err := enlistment.Discover(cwd, "")
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	cfg, err := config.Load(e.Root)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	if cfg.Git.ObjectsRoot != "" {
		e, err = enlistment.New(e.Root, cfg.Git.ObjectsRoot)
		if err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}
	}
	setupLogging(cfg)
	return e, cfg
}

func setupLogging(cfg *config.Config) {
	l := logging.NewLoggerWithFormat(logging.ParseLevel(cfg.Logging.Level), logging.Format(cfg.Logging.Format))
	logging.SetGlobal(l)
}

func newLockManager(e *enlistment.Enlistment, cfg *config.Config) *lock.Manager {
	policy := model.DefaultLockPolicy()
	policy.Timeout = cfg.Maintenance.LockTimeout
	return lock.NewManager(e.ObjectCacheLockPath(), policy)
}

// detectFeatures asks git for its version once, honoring the config override.
func detectFeatures(ctx context.Context, git *gitproc.Process, cfg *config.Config) gitproc.Features {
	features, version, err := gitproc.DetectFeatures(ctx, git, cfg.Git.MaintenanceBuiltin)
	if err != nil {
		if errors.Is(err, errclass.ErrGitUnavailable) {
			fmtErr("git unavailable (git.path=%s): %v", cfg.Git.Path, err)
		} else {
			fmtErr("%v", err)
		}
		os.Exit(1)
	}
	logging.Debug("git features detected", map[string]any{
		"version":  version.String(),
		"features": features.String(),
	})
	return features
}

// engine is the wired maintenance stack for one enlistment.
type engine struct {
	config *config.Config
	runner *maintenance.Runner
	stop   *maintenance.StopSignal
}

// requireEngine wires git, tracing, the object cache lock, the run log and
// metrics into a runner, or exits with error. The caller must call close.
func requireEngine(ctx context.Context) *engine {
	e, cfg := requireEnlistment()
	if err := e.EnsureMetadata(); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}

	err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Stdout:      cfg.Telemetry.Stdout,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     Version,
	})
	if err != nil {
		fmtErr("init telemetry: %v", err)
		os.Exit(1)
	}

	git := gitproc.NewProcess(cfg.Git.Path, e.Root)
	features := detectFeatures(ctx, git, cfg)

	stop := &maintenance.StopSignal{}
	ec := maintenance.NewExecContext(e, git, features,
		tracing.NewOTelTracer(logging.Global()), fsutil.NewPhysical(), stop)

	term := progress.NewTerminal(!jsonOutput)
	runner := maintenance.NewRunner(ec,
		maintenance.WithObjectCacheLock(newLockManager(e, cfg)),
		maintenance.WithRunLog(audit.NewRunLog(e.RunLogPath())),
		maintenance.WithMetrics(metrics.Default()),
		maintenance.WithProgress(term.Callback()),
		maintenance.WithLogger(logging.Global()),
	)
	return &engine{config: cfg, runner: runner, stop: stop}
}

func (en *engine) close() {
	tracing.Shutdown(context.Background())
}

// steps resolves step names, falling back to maintenance.steps.
func (en *engine) steps(names []string) []maintenance.Step {
	if len(names) == 0 {
		names = en.config.Maintenance.Steps
	}
	steps, err := maintenance.DefaultRegistry().Lookup(names)
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	return steps
}

// watchSignals stops the engine on SIGINT or SIGTERM. Running steps finish
// their current git command and skip optional work; ctx is cancelled so
// waits for the lock or the next tick end early.
func (en *engine) watchSignals(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info("stopping maintenance", map[string]any{"signal": sig.String()})
			en.stop.Stop()
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
