// Package ioctl is the default cdda backend. It drives the Linux CDROM
// driver directly: CDROMREADTOCHDR/CDROMREADTOCENTRY for the table of
// contents, CDROM_DISC_STATUS for the disc mode, CDROMREADAUDIO for sectors,
// CDROM_SELECT_SPEED for the read speed, and an SG_IO READ TOC (format 5)
// for CD-TEXT.
package ioctl

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"cddasrc/internal/logging"
)

// Aliases checked by the fallback probe and the default device lookup.
var deviceAliases = []string{"/dev/cdrom", "/dev/dvd"}

// ProbeFunc lists candidate drives.
type ProbeFunc func() ([]string, error)

// Driver opens CD devices through Linux ioctls.
type Driver struct {
	probe  ProbeFunc
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithProbe replaces the /dev glob used to list drives.
func WithProbe(probe ProbeFunc) Option {
	return func(d *Driver) { d.probe = probe }
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// New creates an ioctl driver.
func New(opts ...Option) *Driver {
	d := &Driver{probe: globDevices}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "cdda.ioctl")
	return d
}

// Name implements cdda.Driver.
func (d *Driver) Name() string { return "ioctl" }

// Devices implements cdda.Driver.
func (d *Driver) Devices() ([]string, error) {
	return d.probe()
}

// DefaultDevice implements cdda.Driver. It prefers /dev/cdrom, then the
// first probed drive.
func (d *Driver) DefaultDevice() string {
	if exists(deviceAliases[0]) {
		return deviceAliases[0]
	}
	devices, err := d.probe()
	if err != nil {
		d.logger.Debug("default device probe failed", logging.Error(err))
	}
	if len(devices) == 0 {
		return ""
	}
	return devices[0]
}

func globDevices() ([]string, error) {
	matches, err := filepath.Glob("/dev/sr[0-9]*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	for _, alias := range deviceAliases {
		if exists(alias) {
			matches = append(matches, alias)
		}
	}
	return matches, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
