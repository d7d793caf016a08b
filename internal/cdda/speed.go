package cdda

import "fmt"

// Read speed property bounds.
const (
	ReadSpeedDefault = -1
	ReadSpeedMax     = 100
)

// ReadSpeed is the typed view of the read-speed property. The zero value is
// DeviceDefault.
type ReadSpeed struct {
	n     int
	fixed bool
}

// DeviceDefault leaves the drive at its own speed.
var DeviceDefault = ReadSpeed{}

// FixedSpeed requests speed multiplier n. Values outside 0..100 are clamped
// to the property bounds; use ParseReadSpeed to validate instead.
func FixedSpeed(n int) ReadSpeed {
	n = max(0, min(n, ReadSpeedMax))
	return ReadSpeed{n: n, fixed: true}
}

// ParseReadSpeed converts the raw property integer. -1 maps to
// DeviceDefault.
func ParseReadSpeed(v int) (ReadSpeed, error) {
	if v < ReadSpeedDefault || v > ReadSpeedMax {
		return DeviceDefault, fmt.Errorf("%w: %d (want %d..%d)", ErrReadSpeedRange, v, ReadSpeedDefault, ReadSpeedMax)
	}
	if v == ReadSpeedDefault {
		return DeviceDefault, nil
	}
	return ReadSpeed{n: v, fixed: true}, nil
}

// Fixed returns the multiplier and whether one is set.
func (s ReadSpeed) Fixed() (int, bool) {
	return s.n, s.fixed
}

// Int returns the raw property value.
func (s ReadSpeed) Int() int {
	if !s.fixed {
		return ReadSpeedDefault
	}
	return s.n
}

func (s ReadSpeed) String() string {
	if !s.fixed {
		return "device default"
	}
	return fmt.Sprintf("%dx", s.n)
}
