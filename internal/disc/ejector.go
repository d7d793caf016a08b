package disc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	ioctlCDROMEject    = 0x5309
	ioctlCDROMLockDoor = 0x5329
)

// Ejector defines disc eject operations.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

// NewEjector returns an ejector that issues CDROMEJECT and falls back to the
// eject utility when the ioctl fails.
func NewEjector() Ejector {
	return fallbackEjector{primary: ioctlEjector{}, fallback: commandEjector{}}
}

type ioctlEjector struct{}

func (ioctlEjector) Eject(_ context.Context, device string) error {
	device = strings.TrimSpace(device)
	if device == "" {
		return fmt.Errorf("eject: empty device path")
	}
	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	defer unix.Close(fd) //nolint:errcheck

	// A door left locked by another reader makes CDROMEJECT fail with EBUSY.
	_ = unix.IoctlSetInt(fd, ioctlCDROMLockDoor, 0)
	if _, err := unix.IoctlRetInt(fd, ioctlCDROMEject); err != nil {
		return fmt.Errorf("ioctl CDROMEJECT on %s: %w", device, err)
	}
	return nil
}

type commandEjector struct{}

func (commandEjector) Eject(ctx context.Context, device string) error {
	var cmd *exec.Cmd
	if device == "" {
		cmd = exec.CommandContext(ctx, "eject")
	} else {
		cmd = exec.CommandContext(ctx, "eject", device)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("eject %s: %w", device, err)
	}
	return nil
}

type fallbackEjector struct {
	primary  Ejector
	fallback Ejector
}

func (e fallbackEjector) Eject(ctx context.Context, device string) error {
	err := e.primary.Eject(ctx, device)
	if err == nil {
		return nil
	}
	if ferr := e.fallback.Eject(ctx, device); ferr != nil {
		return fmt.Errorf("%w (fallback: %v)", err, ferr)
	}
	return nil
}
