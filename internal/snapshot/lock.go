package snapshot

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

const lockFileName = ".snapshot.lock"

// RunLock guards an output directory against concurrent runs
type RunLock struct {
	lockFile *flock.Flock
	lockPath string
}

// NewRunLock creates a lock for the given output directory
func NewRunLock(dir string) *RunLock {
	lockPath := filepath.Join(dir, lockFileName)
	return &RunLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
	}
}

// TryLock attempts to acquire the lock without blocking
func (l *RunLock) TryLock() error {
	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock: %w", err)
	}
	if !locked {
		return apperrors.NewLockedError(fmt.Sprintf("another snapshot run holds %s", l.lockPath))
	}
	return nil
}

// Unlock releases the lock. The lock file stays in place so every run locks the same inode.
func (l *RunLock) Unlock() error {
	if !l.lockFile.Locked() {
		return nil
	}
	if err := l.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return nil
}

// Path returns the lock file path
func (l *RunLock) Path() string {
	return l.lockPath
}
