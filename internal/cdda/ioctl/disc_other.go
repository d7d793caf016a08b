//go:build !linux

package ioctl

import (
	"fmt"
	"runtime"

	"cddasrc/internal/cdda"
)

// Open implements cdda.Driver. The CDROM ioctls only exist on Linux.
func (d *Driver) Open(device string) (cdda.Disc, error) {
	return nil, fmt.Errorf("ioctl backend on %s: %w", runtime.GOOS, cdda.ErrUnsupported)
}
