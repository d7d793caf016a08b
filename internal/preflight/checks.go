package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"cddasrc/internal/config"
	"cddasrc/internal/deps"
	"cddasrc/internal/disc"
)

// CheckBackend verifies the configured read backend is usable.
func CheckBackend(backend string, libcdioAvailable bool) Result {
	const name = "Backend"
	switch backend {
	case config.BackendIoctl:
		return Result{Name: name, Passed: true, Detail: "ioctl (kernel CD-ROM driver)"}
	case config.BackendLibcdio:
		if !libcdioAvailable {
			return Result{Name: name, Detail: "libcdio (not compiled in; rebuild with -tags libcdio)"}
		}
		return Result{Name: name, Passed: true, Detail: "libcdio"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown backend %q", backend)}
	}
}

// CheckDevice verifies the device node exists and is readable.
func CheckDevice(device string) Result {
	const name = "Device"
	device = disc.NormalizeDevice(device)
	if device == "" {
		return Result{Name: name, Detail: "not configured (autodetect at rip time)", Optional: true}
	}
	if _, err := os.Stat(device); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", device, err)}
	}
	if err := unix.Access(device, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v; join the cdrom group)", device, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", device)}
}

// CheckDrive reports the tray and media state.
func CheckDrive(_ context.Context, device string, status disc.StatusFunc) Result {
	const name = "Drive"
	device = disc.NormalizeDevice(device)
	if device == "" {
		return Result{Name: name, Detail: "no device configured", Optional: true}
	}
	st, err := status(device)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if st != disc.DriveStatusDiscOK {
		return Result{Name: name, Detail: st.String(), Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: st.String()}
}

// CheckOutputDir verifies that path is a writable directory, or that the
// closest existing parent is writable so it can be created.
func CheckOutputDir(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	case err == nil:
		if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
	case errors.Is(err, os.ErrNotExist):
		parent := existingParent(path)
		if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
}

// CheckBinaries converts external binary checks into results.
func CheckBinaries() []Result {
	statuses := deps.CheckBinaries(deps.Requirements())
	results := make([]Result, 0, len(statuses))
	for _, st := range statuses {
		detail := st.Command
		if !st.Available {
			detail = st.Detail
		}
		results = append(results, Result{Name: st.Name, Passed: st.Available, Optional: st.Optional, Detail: detail})
	}
	return results
}

func existingParent(path string) string {
	dir := filepath.Clean(path)
	for {
		parent := filepath.Dir(dir)
		if _, err := os.Stat(parent); err == nil || parent == dir {
			return parent
		}
		dir = parent
	}
}

func parentDir(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return filepath.Dir(path)
}
