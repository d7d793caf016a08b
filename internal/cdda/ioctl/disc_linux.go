//go:build linux

package ioctl

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"cddasrc/internal/cdda"
	"cddasrc/internal/cdtext"
	"cddasrc/internal/logging"
)

type tocHeader struct {
	trk0 uint8
	trk1 uint8
}

// rawTOCEntry mirrors struct cdrom_tocentry.
type rawTOCEntry struct {
	track    uint8
	adrCtrl  uint8
	format   uint8
	_        uint8
	addr     int32
	datamode uint8
	_        [3]uint8
}

// rawReadAudio mirrors struct cdrom_read_audio.
type rawReadAudio struct {
	addr    int32
	format  uint8
	_       [3]uint8
	nframes int32
	buf     *byte
}

// sgIOHdr mirrors struct sg_io_hdr.
type sgIOHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         *byte
	cmdp           *byte
	sbp            *byte
	timeout        uint32
	flags          uint32
	packID         int32
	usrPtr         unsafe.Pointer
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

const (
	sgDxferFromDev = -3
	sgInfoOKMask   = 0x1
	sgTimeoutMs    = 10000
)

// Open implements cdda.Driver.
func (d *Driver) Open(device string) (cdda.Disc, error) {
	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	disc := &disc{fd: fd, device: device, driver: d}
	disc.toc, err = readTOC(fd)
	if err != nil {
		// An unreadable TOC is reported as zero tracks; the mode check
		// decides whether the disc is usable at all.
		d.logger.Debug("read toc failed", logging.Device(device), logging.Error(err))
	}
	return disc, nil
}

type disc struct {
	fd     int
	device string
	driver *Driver
	toc    *toc
}

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func readTOC(fd int) (*toc, error) {
	var hdr tocHeader
	if err := ioctlPtr(fd, cdromReadTOCHdr, unsafe.Pointer(&hdr)); err != nil {
		return nil, fmt.Errorf("ioctl CDROMREADTOCHDR: %w", err)
	}
	t := &toc{first: int(hdr.trk0), last: int(hdr.trk1)}
	if t.last < t.first {
		return t, nil
	}
	for n := t.first; n <= t.last; n++ {
		entry, err := readTOCEntry(fd, uint8(n))
		if err != nil {
			return nil, err
		}
		t.entries = append(t.entries, entry)
	}
	leadOut, err := readTOCEntry(fd, cdromLeadout)
	if err != nil {
		return nil, err
	}
	t.leadOut = leadOut.lsn
	return t, nil
}

func readTOCEntry(fd int, track uint8) (tocEntry, error) {
	raw := rawTOCEntry{track: track, format: cdromLBA}
	if err := ioctlPtr(fd, cdromReadTOCEntry, unsafe.Pointer(&raw)); err != nil {
		return tocEntry{}, fmt.Errorf("ioctl CDROMREADTOCENTRY track %d: %w", track, err)
	}
	return tocEntry{
		track: int(track),
		lsn:   int(raw.addr),
		data:  (raw.adrCtrl>>4)&ctrlData != 0,
	}, nil
}

func (c *disc) Mode() (cdda.DiscMode, error) {
	status, err := unix.IoctlRetInt(c.fd, cdromDiscStatus)
	if err != nil {
		return cdda.ModeUnknown, fmt.Errorf("ioctl CDROM_DISC_STATUS: %w", err)
	}
	return modeFromStatus(status), nil
}

func (c *disc) FirstTrack() int {
	if c.toc == nil {
		return -1
	}
	return c.toc.first
}

func (c *disc) NumTracks() int {
	if c.toc == nil {
		return 0
	}
	return len(c.toc.entries)
}

func (c *disc) TrackStart(track int) int { return c.toc.start(track) }

func (c *disc) TrackSectors(track int) int { return c.toc.sectors(track) }

func (c *disc) TrackIsAudio(track int) bool { return c.toc.isAudio(track) }

func (c *disc) SetSpeed(speed int) error {
	if err := unix.IoctlSetInt(c.fd, cdromSelectSpeed, speed); err != nil {
		if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) {
			return fmt.Errorf("CDROM_SELECT_SPEED: %w: %w", cdda.ErrUnsupported, err)
		}
		return fmt.Errorf("ioctl CDROM_SELECT_SPEED: %w", err)
	}
	return nil
}

func (c *disc) ReadAudioSector(dst []byte, lsn int) error {
	if len(dst) < cdda.SectorSize {
		return fmt.Errorf("buffer of %d bytes is smaller than a sector", len(dst))
	}
	req := rawReadAudio{
		addr:    int32(lsn),
		format:  cdromLBA,
		nframes: 1,
		buf:     &dst[0],
	}
	err := ioctlPtr(c.fd, cdromReadAudio, unsafe.Pointer(&req))
	runtime.KeepAlive(dst)
	if err != nil {
		return fmt.Errorf("ioctl CDROMREADAUDIO: %w", err)
	}
	return nil
}

func (c *disc) Text() (*cdtext.Text, error) {
	header := make([]byte, 4)
	if err := c.readTOCFormat5(header); err != nil {
		return nil, err
	}
	n, err := cdTextLength(header)
	if err != nil {
		return nil, err
	}
	n = min(n, maxCDTextLength)
	data := make([]byte, n)
	if err := c.readTOCFormat5(data); err != nil {
		return nil, err
	}
	text, err := cdtext.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cdda.ErrUnsupported, err)
	}
	return text, nil
}

func (c *disc) readTOCFormat5(dst []byte) error {
	cdb := readTOCCommand(len(dst))
	sense := make([]byte, 32)
	hdr := sgIOHdr{
		interfaceID:    'S',
		dxferDirection: sgDxferFromDev,
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        uint8(len(sense)),
		dxferLen:       uint32(len(dst)),
		dxferp:         &dst[0],
		cmdp:           &cdb[0],
		sbp:            &sense[0],
		timeout:        sgTimeoutMs,
	}
	err := ioctlPtr(c.fd, sgIO, unsafe.Pointer(&hdr))
	runtime.KeepAlive(dst)
	runtime.KeepAlive(cdb)
	runtime.KeepAlive(sense)
	if err != nil {
		return fmt.Errorf("SG_IO READ TOC: %w: %w", cdda.ErrUnsupported, err)
	}
	if hdr.info&sgInfoOKMask != 0 || hdr.status != 0 {
		return fmt.Errorf("READ TOC format 5 status 0x%02x: %w", hdr.status, cdda.ErrUnsupported)
	}
	return nil
}

func (c *disc) Close() error {
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("close %s: %w", c.device, err)
	}
	return nil
}
