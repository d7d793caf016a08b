//go:build !libcdio || !cgo

// Package libcdio is a cdda backend built on the native libcdio library.
// This build does not include it; every operation reports
// cdda.ErrUnsupported.
package libcdio

import (
	"fmt"
	"log/slog"

	"cddasrc/internal/cdda"
)

// Available reports whether the binary was built with libcdio.
const Available = false

var errNotBuilt = fmt.Errorf("libcdio backend not compiled in (build with -tags libcdio): %w", cdda.ErrUnsupported)

// Driver is a placeholder that fails every open.
type Driver struct{}

// New returns the placeholder driver.
func New(*slog.Logger) *Driver { return &Driver{} }

// Name implements cdda.Driver.
func (d *Driver) Name() string { return "libcdio" }

// Open implements cdda.Driver.
func (d *Driver) Open(string) (cdda.Disc, error) { return nil, errNotBuilt }

// DefaultDevice implements cdda.Driver.
func (d *Driver) DefaultDevice() string { return "" }

// Devices implements cdda.Driver.
func (d *Driver) Devices() ([]string, error) { return nil, errNotBuilt }
