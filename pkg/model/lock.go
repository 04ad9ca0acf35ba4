package model

import "time"

// LockRecord describes the holder of the object cache lock. It is stored next
// to the lock file as object-cache.lock.json while the lock is held.
type LockRecord struct {
	HolderID   string    `json:"holder_id"`
	PID        int       `json:"pid"`
	Host       string    `json:"host"`
	Purpose    string    `json:"purpose,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Age returns how long the lock has been held as of now.
func (l *LockRecord) Age(now time.Time) time.Duration {
	return now.Sub(l.AcquiredAt)
}

// LockPolicy configures object cache lock acquisition.
type LockPolicy struct {
	// Timeout bounds how long Acquire retries before reporting a conflict.
	Timeout time.Duration `json:"timeout"`
	// InitialInterval is the first backoff delay between attempts.
	InitialInterval time.Duration `json:"initial_interval"`
	// MaxInterval caps the backoff delay.
	MaxInterval time.Duration `json:"max_interval"`
}

// DefaultLockPolicy returns the policy used when none is configured.
func DefaultLockPolicy() LockPolicy {
	return LockPolicy{
		Timeout:         30 * time.Second,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}
