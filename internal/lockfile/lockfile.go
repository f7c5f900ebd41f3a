// Package lockfile provides directory-based locking so only one blueprint
// process owns a state directory at a time.
//
// The lock uses flock, which the kernel releases automatically when the
// process exits, gracefully or not.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// LockFileName is the name of the lock file created in the state directory.
const LockFileName = "blueprint.lock"

// Lock represents an acquired directory lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive lock on the state directory. It fails immediately
// when another process holds the lock, reporting the holder's pid when known.
func Acquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}
	lockPath := filepath.Join(stateDir, LockFileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := readHolder(lockPath)
		file.Close()
		slog.Error("lockfile.Acquire: lock already held", "lock_path", lockPath, "holder", holder)
		if holder != "" {
			return nil, fmt.Errorf("another blueprint instance (%s) holds %s: %w", holder, lockPath, err)
		}
		return nil, fmt.Errorf("another blueprint instance holds %s: %w", lockPath, err)
	}

	if err := file.Truncate(0); err == nil {
		fmt.Fprintf(file, "pid=%d\n", os.Getpid())
	}
	slog.Debug("lockfile.Acquire: lock acquired", "lock_path", lockPath, "pid", os.Getpid())
	return &Lock{file: file, path: lockPath}, nil
}

// Release frees the lock and removes the lock file. Safe to call once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close lock file %s: %w", l.path, err)
	}
	os.Remove(l.path)
	l.file = nil
	slog.Debug("lockfile.Release: lock released", "lock_path", l.path)
	return nil
}

// readHolder returns the pid line from an existing lock file, if readable.
func readHolder(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
