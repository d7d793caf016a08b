package cdda

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyOpen is returned by Open when the session holds a handle.
	ErrAlreadyOpen = errors.New("cdda: device already open")
	// ErrNotOpen is returned by operations that need an open handle.
	ErrNotOpen = errors.New("cdda: no device open")
	// ErrReadSpeedRange rejects read speeds outside -1..100.
	ErrReadSpeedRange = errors.New("cdda: read speed out of range")
	// ErrUnsupported is returned by backends lacking an optional feature.
	ErrUnsupported = errors.New("cdda: not supported by backend")
	// ErrNoDevice means no device path was given and none could be found.
	ErrNoDevice = errors.New("cdda: no CD device found")
	// ErrPropertyType rejects a property value of the wrong type.
	ErrPropertyType = errors.New("cdda: wrong property value type")
)

// DeviceOpenError reports that the backend could not open a device.
type DeviceOpenError struct {
	Device string
	Err    error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("cdda: could not open CD device %q for reading: %v", e.Device, e.Err)
}

func (e *DeviceOpenError) Unwrap() error { return e.Err }

// NotAudioDiscError reports a disc that is neither CD-DA nor mixed mode.
type NotAudioDiscError struct {
	Device string
	Mode   DiscMode
	Err    error
}

func (e *NotAudioDiscError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cdda: disc in %q is not an audio CD: %v", e.Device, e.Err)
	}
	return fmt.Sprintf("cdda: disc in %q is not an audio CD (mode %s)", e.Device, e.Mode)
}

func (e *NotAudioDiscError) Unwrap() error { return e.Err }

// SectorReadError reports a failed read of one sector.
type SectorReadError struct {
	Sector int
	Err    error
}

func (e *SectorReadError) Error() string {
	return fmt.Sprintf("cdda: could not read sector %d: %v", e.Sector, e.Err)
}

func (e *SectorReadError) Unwrap() error { return e.Err }

// AllocationError reports that no buffer could be obtained.
type AllocationError struct {
	Size int
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cdda: could not allocate %d byte buffer: %v", e.Size, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// UnsupportedFeatureWarning describes an optional feature the backend or
// disc lacks. It is logged and posted, never returned from Open.
type UnsupportedFeatureWarning struct {
	Feature string
	Err     error
}

func (w *UnsupportedFeatureWarning) Error() string {
	if w.Err == nil {
		return fmt.Sprintf("cdda: %s not supported", w.Feature)
	}
	return fmt.Sprintf("cdda: %s not supported: %v", w.Feature, w.Err)
}

func (w *UnsupportedFeatureWarning) Unwrap() error { return w.Err }
