//go:build libcdio && cgo

// Package libcdio is a cdda backend built on the native libcdio library.
// Build with -tags libcdio and the libcdio development files installed.
package libcdio

/*
#cgo pkg-config: libcdio
#include <stdlib.h>
#include <cdio/cdio.h>
#include <cdio/cdtext.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"cddasrc/internal/cdda"
	"cddasrc/internal/cdtext"
	"cddasrc/internal/logging"
)

// Available reports whether the binary was built with libcdio.
const Available = true

var errOpen = errors.New("cdio_open failed")

// Driver opens devices through libcdio.
type Driver struct {
	logger *slog.Logger
}

// New creates a libcdio driver.
func New(logger *slog.Logger) *Driver {
	return &Driver{logger: logging.NewComponentLogger(logger, "cdda.libcdio")}
}

// Name implements cdda.Driver.
func (d *Driver) Name() string { return "libcdio" }

// Open implements cdda.Driver.
func (d *Driver) Open(device string) (cdda.Disc, error) {
	cpath := C.CString(device)
	defer C.free(unsafe.Pointer(cpath))
	p := C.cdio_open(cpath, C.DRIVER_UNKNOWN)
	if p == nil {
		return nil, fmt.Errorf("%s: %w", device, errOpen)
	}
	return &disc{p: p, device: device}, nil
}

// DefaultDevice implements cdda.Driver.
func (d *Driver) DefaultDevice() string {
	cdev := C.cdio_get_default_device(nil)
	if cdev == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(cdev))
	return C.GoString(cdev)
}

// Devices implements cdda.Driver. The list is returned as libcdio reports
// it; symlinked aliases of one drive are not folded.
func (d *Driver) Devices() ([]string, error) {
	list := C.cdio_get_devices(C.DRIVER_DEVICE)
	if list == nil {
		return nil, nil
	}
	defer C.cdio_free_device_list(list)

	var devices []string
	for p := list; *p != nil; p = (**C.char)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p))) {
		devices = append(devices, C.GoString(*p))
	}
	return devices, nil
}

type disc struct {
	p      *C.CdIo_t
	device string
}

func (c *disc) Mode() (cdda.DiscMode, error) {
	switch C.cdio_get_discmode(c.p) {
	case C.CDIO_DISC_MODE_CD_DA:
		return cdda.ModeAudio, nil
	case C.CDIO_DISC_MODE_CD_MIXED:
		return cdda.ModeMixed, nil
	case C.CDIO_DISC_MODE_CD_DATA:
		return cdda.ModeData, nil
	case C.CDIO_DISC_MODE_CD_XA:
		return cdda.ModeXA, nil
	case C.CDIO_DISC_MODE_NO_INFO, C.CDIO_DISC_MODE_ERROR:
		return cdda.ModeUnknown, nil
	default:
		return cdda.ModeDVD, nil
	}
}

func (c *disc) FirstTrack() int {
	n := C.cdio_get_first_track_num(c.p)
	if n == C.CDIO_INVALID_TRACK {
		return -1
	}
	return int(n)
}

func (c *disc) NumTracks() int {
	n := C.cdio_get_num_tracks(c.p)
	if n == C.CDIO_INVALID_TRACK {
		return 0
	}
	return int(n)
}

func (c *disc) TrackStart(track int) int {
	return int(C.cdio_get_track_lsn(c.p, C.track_t(track)))
}

func (c *disc) TrackSectors(track int) int {
	return int(C.cdio_get_track_sec_count(c.p, C.track_t(track)))
}

func (c *disc) TrackIsAudio(track int) bool {
	return C.cdio_get_track_format(c.p, C.track_t(track)) == C.TRACK_FORMAT_AUDIO
}

func (c *disc) Text() (*cdtext.Text, error) {
	ct := C.cdio_get_cdtext(c.p)
	if ct == nil {
		return nil, fmt.Errorf("cdio_get_cdtext: %w", cdda.ErrUnsupported)
	}
	text := &cdtext.Text{Tracks: make(map[int]cdtext.Entry)}
	text.Album = entry(ct, 0)
	first, count := c.FirstTrack(), c.NumTracks()
	for n := first; first >= 0 && n < first+count; n++ {
		if e := entry(ct, n); !e.Empty() {
			text.Tracks[n] = e
		}
	}
	return text, nil
}

func entry(ct *C.cdtext_t, track int) cdtext.Entry {
	return cdtext.Entry{
		Title:     field(ct, C.CDTEXT_FIELD_TITLE, track),
		Performer: field(ct, C.CDTEXT_FIELD_PERFORMER, track),
	}
}

func field(ct *C.cdtext_t, f C.cdtext_field_t, track int) string {
	s := C.cdtext_get_const(ct, f, C.track_t(track))
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func (c *disc) SetSpeed(speed int) error {
	rc := C.cdio_set_speed(c.p, C.int(speed))
	switch rc {
	case C.DRIVER_OP_SUCCESS:
		return nil
	case C.DRIVER_OP_UNSUPPORTED, C.DRIVER_OP_NOT_PERMITTED:
		return fmt.Errorf("cdio_set_speed: %w", cdda.ErrUnsupported)
	default:
		return fmt.Errorf("cdio_set_speed returned %d", int(rc))
	}
}

func (c *disc) ReadAudioSector(dst []byte, lsn int) error {
	if len(dst) < cdda.SectorSize {
		return fmt.Errorf("buffer of %d bytes is smaller than a sector", len(dst))
	}
	rc, errno := C.cdio_read_audio_sector(c.p, unsafe.Pointer(&dst[0]), C.lsn_t(lsn))
	if rc != C.DRIVER_OP_SUCCESS {
		if errno != nil {
			return fmt.Errorf("cdio_read_audio_sector: %w", errno)
		}
		return fmt.Errorf("cdio_read_audio_sector returned %d", int(rc))
	}
	return nil
}

func (c *disc) Close() error {
	C.cdio_destroy(c.p)
	c.p = nil
	return nil
}
