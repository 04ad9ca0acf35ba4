// Package lock implements the store-wide object cache lock that serializes
// maintenance steps touching the same object store.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
	"github.com/DEVBOX10/microsoft-scalar/pkg/fsutil"
	"github.com/DEVBOX10/microsoft-scalar/pkg/logging"
	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

var errBusy = errors.New("object cache lock busy")

// Manager acquires and releases the object cache lock at one path.
type Manager struct {
	path   string
	policy model.LockPolicy
	fs     *fsutil.FileSystem

	mu     sync.Mutex
	flock  *flock.Flock
	record *model.LockRecord
}

// NewManager creates a lock manager for the lock file at path.
func NewManager(path string, policy model.LockPolicy) *Manager {
	return &Manager{
		path:   path,
		policy: policy,
		fs:     fsutil.NewPhysical(),
	}
}

// Path returns the lock file path.
func (m *Manager) Path() string {
	return m.path
}

// RecordPath returns the file holding the current holder's LockRecord.
func (m *Manager) RecordPath() string {
	return m.path + ".json"
}

// Acquire takes the lock, retrying with exponential backoff until the policy
// timeout or ctx ends.
func (m *Manager) Acquire(ctx context.Context, purpose string) (*model.LockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record != nil {
		return nil, errclass.ErrLockConflict.WithMessagef(
			"object cache lock already held by this process for %q", m.record.Purpose)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(m.path)
	op := func() error {
		locked, err := fl.TryLock()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !locked {
			return errBusy
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(m.backoff(), ctx)); err != nil {
		if errors.Is(err, errBusy) {
			holder := "unknown holder"
			if rec, readErr := m.readRecord(); readErr == nil {
				holder = fmt.Sprintf("pid %d on %s (%s)", rec.PID, rec.Host, rec.Purpose)
			}
			return nil, errclass.ErrLockConflict.WithMessagef(
				"object cache lock %s is held by %s", m.path, holder)
		}
		return nil, fmt.Errorf("acquire object cache lock: %w", err)
	}

	host, _ := os.Hostname()
	rec := &model.LockRecord{
		HolderID:   uuid.NewString(),
		PID:        os.Getpid(),
		Host:       host,
		Purpose:    purpose,
		AcquiredAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("marshal lock record: %w", err)
	}
	if err := m.fs.WriteFileAtomic(m.RecordPath(), data, 0644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("write lock record: %w", err)
	}

	m.flock = fl
	m.record = rec
	logging.Debug("object cache lock acquired", map[string]any{
		"path":    m.path,
		"purpose": purpose,
	})
	return rec, nil
}

// Release frees the lock held by this manager.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil {
		return errclass.ErrLockNotHeld.WithMessage("object cache lock is not held by this process")
	}

	// The lock file itself stays; removing a flocked file lets a waiter lock
	// an unlinked inode.
	m.fs.TryDeleteFile(m.RecordPath())
	err := m.flock.Unlock()
	m.flock = nil
	m.record = nil
	if err != nil {
		return fmt.Errorf("unlock object cache lock: %w", err)
	}
	return nil
}

// Status reports whether any process holds the lock, and its record if known.
func (m *Manager) Status() (model.LockState, *model.LockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record != nil {
		rec := *m.record
		return model.LockStateHeld, &rec, nil
	}
	if !m.fs.FileExists(m.path) {
		return model.LockStateFree, nil, nil
	}

	probe := flock.New(m.path)
	locked, err := probe.TryLock()
	if err != nil {
		return model.LockStateFree, nil, fmt.Errorf("probe object cache lock: %w", err)
	}
	if locked {
		probe.Unlock()
		return model.LockStateFree, nil, nil
	}

	rec, err := m.readRecord()
	if err != nil {
		return model.LockStateHeld, nil, nil
	}
	return model.LockStateHeld, rec, nil
}

func (m *Manager) backoff() backoff.BackOff {
	if m.policy.Timeout <= 0 {
		return &backoff.StopBackOff{}
	}
	bo := backoff.NewExponentialBackOff()
	if m.policy.InitialInterval > 0 {
		bo.InitialInterval = m.policy.InitialInterval
	}
	if m.policy.MaxInterval > 0 {
		bo.MaxInterval = m.policy.MaxInterval
	}
	bo.MaxElapsedTime = m.policy.Timeout
	bo.Reset()
	return bo
}

func (m *Manager) readRecord() (*model.LockRecord, error) {
	data, err := m.fs.ReadFile(m.RecordPath())
	if err != nil {
		return nil, err
	}
	var rec model.LockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse lock record: %w", err)
	}
	return &rec, nil
}
