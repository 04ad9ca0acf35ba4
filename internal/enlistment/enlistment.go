// Package enlistment locates a git working directory and its object store
// and names the files maintenance steps touch inside them.
package enlistment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
)

const (
	GitDirName      = ".git"
	MetadataDirName = ".scalar"
)

// Enlistment is a working directory plus the object store maintenance runs against.
type Enlistment struct {
	Root        string
	ObjectsRoot string
}

// New returns an enlistment rooted at root. An empty objectsRoot selects
// <root>/.git/objects; a relative one is resolved against root.
func New(root, objectsRoot string) (*Enlistment, error) {
	if !filepath.IsAbs(root) {
		return nil, errclass.ErrNotEnlistment.WithMessagef("root must be absolute: %s", root)
	}
	root = filepath.Clean(root)
	switch {
	case objectsRoot == "":
		objectsRoot = filepath.Join(root, GitDirName, "objects")
	case !filepath.IsAbs(objectsRoot):
		objectsRoot = filepath.Join(root, objectsRoot)
	}
	return &Enlistment{Root: root, ObjectsRoot: filepath.Clean(objectsRoot)}, nil
}

// Discover walks up from start to the first directory containing .git.
func Discover(start, objectsRoot string) (*Enlistment, error) {
	path, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", start, err)
	}
	for {
		// .git is a directory for normal clones and a file for linked worktrees.
		if _, err := os.Stat(filepath.Join(path, GitDirName)); err == nil {
			return New(path, objectsRoot)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return nil, errclass.ErrNotEnlistment.WithMessagef(
				"no git enlistment found (no %s in %s or any parent)", GitDirName, start)
		}
		path = parent
	}
}

// InfoDir returns <objects-root>/info.
func (e *Enlistment) InfoDir() string {
	return filepath.Join(e.ObjectsRoot, "info")
}

// CommitGraphsDir returns the directory holding split commit-graph files.
func (e *Enlistment) CommitGraphsDir() string {
	return filepath.Join(e.InfoDir(), "commit-graphs")
}

// CommitGraphChainFile returns the chain file listing the split graph layers.
func (e *Enlistment) CommitGraphChainFile() string {
	return filepath.Join(e.CommitGraphsDir(), "commit-graph-chain")
}

// CommitGraphChainLock returns the lock git creates while rewriting the chain.
func (e *Enlistment) CommitGraphChainLock() string {
	return filepath.Join(e.CommitGraphsDir(), "commit-graph-chain.lock")
}

// ObjectCacheLockPath returns the store-wide maintenance lock.
func (e *Enlistment) ObjectCacheLockPath() string {
	return filepath.Join(e.InfoDir(), "object-cache.lock")
}

// MetadataDir returns <root>/.scalar.
func (e *Enlistment) MetadataDir() string {
	return filepath.Join(e.Root, MetadataDirName)
}

// ConfigPath returns <root>/.scalar/config.yaml.
func (e *Enlistment) ConfigPath() string {
	return filepath.Join(e.MetadataDir(), "config.yaml")
}

// LogsDir returns <root>/.scalar/logs.
func (e *Enlistment) LogsDir() string {
	return filepath.Join(e.MetadataDir(), "logs")
}

// RunLogPath returns the JSONL run log.
func (e *Enlistment) RunLogPath() string {
	return filepath.Join(e.LogsDir(), "maintenance.jsonl")
}

// EnsureMetadata creates the .scalar directory tree.
func (e *Enlistment) EnsureMetadata() error {
	if err := os.MkdirAll(e.LogsDir(), 0755); err != nil {
		return fmt.Errorf("create %s: %w", e.LogsDir(), err)
	}
	return nil
}
