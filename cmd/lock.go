package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/landaire/stoptrackingme/internal/config"
)

var instanceLock *flock.Flock

func lockPath() string {
	return filepath.Join(config.GetRuntimeDir(), "stoptrackingme.lock")
}

// AcquireLock takes the single-instance lock. It returns false when another
// monitor already holds it; two monitors would rewrite each other's
// clipboard writes.
func AcquireLock() (bool, error) {
	if err := os.MkdirAll(config.GetRuntimeDir(), 0o755); err != nil {
		return false, err
	}

	fl := flock.New(lockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return false, nil
	}
	instanceLock = fl
	return true, nil
}

// ReleaseLock releases the lock taken by AcquireLock.
func ReleaseLock() error {
	if instanceLock == nil {
		return nil
	}
	err := instanceLock.Unlock()
	instanceLock = nil
	return err
}
