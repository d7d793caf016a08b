// Package cddatest provides an in-memory cdda.Driver for tests.
package cddatest

import (
	"errors"
	"fmt"
	"sync"

	"cddasrc/internal/cdda"
	"cddasrc/internal/cdtext"
)

// ErrNoSuchDevice is returned when opening a path with no disc registered.
var ErrNoSuchDevice = errors.New("cddatest: no such device")

// Track describes one fake TOC entry.
type Track struct {
	Start   int
	Sectors int
	Data    bool
}

// Disc is a fake disc. Fields may be set directly before the disc is
// opened; counters are safe to read concurrently.
type Disc struct {
	DiscMode  cdda.DiscMode
	ModeErr   error
	First     int
	Tracks    []Track
	CDText    *cdtext.Text
	SpeedErr  error
	FailReads map[int]error
	// Fill writes sector content; defaults to Pattern.
	Fill func(lsn int, dst []byte)

	mu         sync.Mutex
	speeds     []int
	reads      int
	closed     bool
	tocQueried bool
	failOnce   map[int]int
}

// NewDisc builds a CD-DA disc whose tracks are laid out back to back from
// LSN 0. dataTracks lists track numbers to mark as data; any data track
// makes the disc mixed mode.
func NewDisc(first int, lengths []int, dataTracks ...int) *Disc {
	data := make(map[int]bool, len(dataTracks))
	for _, n := range dataTracks {
		data[n] = true
	}
	d := &Disc{DiscMode: cdda.ModeAudio, First: first}
	start := 0
	for i, length := range lengths {
		isData := data[first+i]
		if isData {
			d.DiscMode = cdda.ModeMixed
		}
		d.Tracks = append(d.Tracks, Track{Start: start, Sectors: length, Data: isData})
		start += length
	}
	return d
}

// FailReadTimes makes the next n reads of lsn fail with err.
func (d *Disc) FailReadTimes(lsn, n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOnce == nil {
		d.failOnce = make(map[int]int)
	}
	if d.FailReads == nil {
		d.FailReads = make(map[int]error)
	}
	d.failOnce[lsn] = n
	d.FailReads[lsn] = err
}

// Mode implements cdda.Disc.
func (d *Disc) Mode() (cdda.DiscMode, error) {
	return d.DiscMode, d.ModeErr
}

// FirstTrack implements cdda.Disc.
func (d *Disc) FirstTrack() int {
	d.mu.Lock()
	d.tocQueried = true
	d.mu.Unlock()
	return d.First
}

// NumTracks implements cdda.Disc.
func (d *Disc) NumTracks() int {
	d.mu.Lock()
	d.tocQueried = true
	d.mu.Unlock()
	return len(d.Tracks)
}

func (d *Disc) track(n int) (Track, bool) {
	i := n - d.First
	if i < 0 || i >= len(d.Tracks) {
		return Track{}, false
	}
	return d.Tracks[i], true
}

// TrackStart implements cdda.Disc.
func (d *Disc) TrackStart(n int) int {
	t, _ := d.track(n)
	return t.Start
}

// TrackSectors implements cdda.Disc.
func (d *Disc) TrackSectors(n int) int {
	t, _ := d.track(n)
	return t.Sectors
}

// TrackIsAudio implements cdda.Disc.
func (d *Disc) TrackIsAudio(n int) bool {
	t, ok := d.track(n)
	return ok && !t.Data
}

// Text implements cdda.Disc.
func (d *Disc) Text() (*cdtext.Text, error) {
	if d.CDText == nil {
		return nil, fmt.Errorf("cddatest: %w", cdda.ErrUnsupported)
	}
	return d.CDText, nil
}

// SetSpeed implements cdda.Disc.
func (d *Disc) SetSpeed(speed int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SpeedErr != nil {
		return d.SpeedErr
	}
	d.speeds = append(d.speeds, speed)
	return nil
}

// ReadAudioSector implements cdda.Disc.
func (d *Disc) ReadAudioSector(dst []byte, lsn int) error {
	d.mu.Lock()
	d.reads++
	if err, ok := d.FailReads[lsn]; ok {
		remaining, limited := d.failOnce[lsn]
		if !limited || remaining > 0 {
			if limited {
				d.failOnce[lsn] = remaining - 1
			}
			d.mu.Unlock()
			return err
		}
	}
	fill := d.Fill
	d.mu.Unlock()

	if len(dst) < cdda.SectorSize {
		return fmt.Errorf("cddatest: short buffer %d", len(dst))
	}
	if fill == nil {
		fill = Pattern
	}
	fill(lsn, dst[:cdda.SectorSize])
	return nil
}

// Close implements cdda.Disc.
func (d *Disc) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Speeds returns every speed applied to the disc.
func (d *Disc) Speeds() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.speeds...)
}

// Reads returns the number of sector reads attempted.
func (d *Disc) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

// Closed reports whether Close was called.
func (d *Disc) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// TOCQueried reports whether the track table was read.
func (d *Disc) TOCQueried() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tocQueried
}

// Pattern fills dst with bytes derived from lsn so readers can verify which
// sector they got.
func Pattern(lsn int, dst []byte) {
	for i := range dst {
		dst[i] = byte(lsn + i*7)
	}
}

// Driver is a fake cdda.Driver keyed by device path.
type Driver struct {
	Default    string
	DeviceList []string
	DevicesErr error
	OpenErr    error

	mu     sync.Mutex
	discs  map[string]*Disc
	opened []string
}

// NewDriver creates a driver with disc inserted at device, which also
// becomes the default device.
func NewDriver(device string, disc *Disc) *Driver {
	d := &Driver{Default: device, DeviceList: []string{device}}
	d.Insert(device, disc)
	return d
}

// Insert places disc in device.
func (d *Driver) Insert(device string, disc *Disc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.discs == nil {
		d.discs = make(map[string]*Disc)
	}
	d.discs[device] = disc
}

// Name implements cdda.Driver.
func (d *Driver) Name() string { return "fake" }

// Open implements cdda.Driver.
func (d *Driver) Open(device string) (cdda.Disc, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, device)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	disc, ok := d.discs[device]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchDevice, device)
	}
	disc.mu.Lock()
	disc.closed = false
	disc.mu.Unlock()
	return disc, nil
}

// DefaultDevice implements cdda.Driver.
func (d *Driver) DefaultDevice() string { return d.Default }

// Devices implements cdda.Driver.
func (d *Driver) Devices() ([]string, error) {
	return append([]string(nil), d.DeviceList...), d.DevicesErr
}

// Opened returns every path passed to Open.
func (d *Driver) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}
