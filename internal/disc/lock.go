package disc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrDeviceBusy is returned when another process holds the device lock.
var ErrDeviceBusy = errors.New("device is in use by another cddasrc process")

// DeviceLock serializes access to one drive across processes.
type DeviceLock struct {
	device string
	lock   *flock.Flock
}

// NewDeviceLock returns the lock for device stored under dir.
func NewDeviceLock(dir, device string) *DeviceLock {
	return &DeviceLock{device: device, lock: flock.New(LockPath(dir, device))}
}

// LockPath maps a device path to its lock file: /dev/sr0 -> dir/dev-sr0.lock.
func LockPath(dir, device string) string {
	name := strings.Trim(strings.ReplaceAll(filepath.Clean(device), string(filepath.Separator), "-"), "-")
	if name == "" || name == "." {
		name = "default"
	}
	return filepath.Join(dir, name+".lock")
}

// Path returns the lock file path.
func (l *DeviceLock) Path() string { return l.lock.Path() }

// TryLock acquires the lock without waiting.
func (l *DeviceLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", l.device, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", l.device, ErrDeviceBusy)
	}
	return nil
}

// Lock waits until the lock is acquired or ctx ends.
func (l *DeviceLock) Lock(ctx context.Context, retry time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.lock.TryLockContext(ctx, retry)
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", l.device, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", l.device, ErrDeviceBusy)
	}
	return nil
}

// Unlock releases the lock.
func (l *DeviceLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock for %s: %w", l.device, err)
	}
	return nil
}
