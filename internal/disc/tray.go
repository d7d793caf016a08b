package disc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ioctlCDROMDriveStatus is the Linux ioctl number for CDROM_DRIVE_STATUS.
const ioctlCDROMDriveStatus = 0x5326

// DriveStatus represents the result of a CDROM_DRIVE_STATUS ioctl call.
type DriveStatus int

const (
	DriveStatusNoInfo   DriveStatus = 0
	DriveStatusNoDisc   DriveStatus = 1
	DriveStatusTrayOpen DriveStatus = 2
	DriveStatusNotReady DriveStatus = 3
	DriveStatusDiscOK   DriveStatus = 4
)

// String returns a human-readable label for the drive status.
func (s DriveStatus) String() string {
	switch s {
	case DriveStatusNoInfo:
		return "no_info"
	case DriveStatusNoDisc:
		return "no_disc"
	case DriveStatusTrayOpen:
		return "tray_open"
	case DriveStatusNotReady:
		return "not_ready"
	case DriveStatusDiscOK:
		return "disc_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// NormalizeDevice turns "sr0", "dev:/dev/sr0", or "/dev/sr0" into a /dev
// path.
func NormalizeDevice(device string) string {
	trimmed := strings.TrimSpace(device)
	trimmed = strings.TrimPrefix(trimmed, "dev:")
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/dev/" + trimmed
}

// CheckDriveStatus queries the drive state using the CDROM_DRIVE_STATUS ioctl.
// Returns an error if the device cannot be opened or the ioctl fails.
func CheckDriveStatus(devicePath string) (DriveStatus, error) {
	devicePath = strings.TrimSpace(devicePath)
	if devicePath == "" {
		return DriveStatusNoInfo, fmt.Errorf("empty device path")
	}

	fd, err := unix.Open(devicePath, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return DriveStatusNoInfo, fmt.Errorf("open %s: %w", devicePath, err)
	}
	defer unix.Close(fd) //nolint:errcheck

	status, err := unix.IoctlRetInt(fd, ioctlCDROMDriveStatus)
	if err != nil {
		return DriveStatusNoInfo, fmt.Errorf("ioctl CDROM_DRIVE_STATUS on %s: %w", devicePath, err)
	}
	return DriveStatus(status), nil
}

// StatusFunc reports a drive status.
type StatusFunc func(devicePath string) (DriveStatus, error)

// WaitOptions tune WaitForReady.
type WaitOptions struct {
	MaxPolls     int
	PollInterval time.Duration
	// Check defaults to CheckDriveStatus.
	Check StatusFunc
}

// WaitForReady polls the drive (by default up to 60 times at 1-second
// intervals) until it reports DriveStatusDiscOK or the context is cancelled.
func WaitForReady(ctx context.Context, devicePath string, opts WaitOptions) (DriveStatus, error) {
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 60
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Check == nil {
		opts.Check = CheckDriveStatus
	}

	var lastStatus DriveStatus
	for i := 0; i < opts.MaxPolls; i++ {
		status, err := opts.Check(devicePath)
		if err != nil {
			return status, err
		}
		lastStatus = status
		if status == DriveStatusDiscOK {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return lastStatus, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}

	return lastStatus, fmt.Errorf("drive %s not ready after %d polls (last status: %s)", devicePath, opts.MaxPolls, lastStatus)
}
