package ioctl

import (
	"encoding/binary"
	"fmt"

	"cddasrc/internal/cdda"
)

// Linux CDROM ioctl requests and constants from <linux/cdrom.h>.
const (
	cdromReadTOCHdr   = 0x5305
	cdromReadTOCEntry = 0x5306
	cdromReadAudio    = 0x530e
	cdromSelectSpeed  = 0x5322
	cdromDiscStatus   = 0x5327
	sgIO              = 0x2285

	cdromLBA     = 0x01
	cdromLeadout = 0xaa
	ctrlData     = 0x04

	cdsNoDisc       = 1
	cdsTrayOpen     = 2
	cdsDriveNotRdy  = 3
	cdsAudio        = 100
	cdsData1        = 101
	cdsData2        = 102
	cdsXA21         = 103
	cdsXA22         = 104
	cdsMixed        = 105
	maxCDTextLength = 0xffff
)

// tocEntry is one parsed CDROMREADTOCENTRY result.
type tocEntry struct {
	track int
	lsn   int
	data  bool
}

// toc is the table of contents of an open disc.
type toc struct {
	first   int
	last    int
	entries []tocEntry
	leadOut int
}

func (t *toc) index(track int) (int, bool) {
	if t == nil {
		return 0, false
	}
	i := track - t.first
	if i < 0 || i >= len(t.entries) {
		return 0, false
	}
	return i, true
}

func (t *toc) start(track int) int {
	i, ok := t.index(track)
	if !ok {
		return 0
	}
	return t.entries[i].lsn
}

// sectors returns the distance to the next track or the lead-out.
func (t *toc) sectors(track int) int {
	i, ok := t.index(track)
	if !ok {
		return 0
	}
	next := t.leadOut
	if i+1 < len(t.entries) {
		next = t.entries[i+1].lsn
	}
	return next - t.entries[i].lsn
}

func (t *toc) isAudio(track int) bool {
	i, ok := t.index(track)
	return ok && !t.entries[i].data
}

// modeFromStatus maps a CDROM_DISC_STATUS result.
func modeFromStatus(status int) cdda.DiscMode {
	switch status {
	case cdsAudio:
		return cdda.ModeAudio
	case cdsMixed:
		return cdda.ModeMixed
	case cdsData1, cdsData2:
		return cdda.ModeData
	case cdsXA21, cdsXA22:
		return cdda.ModeXA
	case cdsNoDisc, cdsTrayOpen, cdsDriveNotRdy:
		return cdda.ModeNoDisc
	default:
		return cdda.ModeUnknown
	}
}

// readTOCCommand builds an MMC READ TOC/PMA/ATIP CDB for format 5
// (CD-TEXT).
func readTOCCommand(allocation int) []byte {
	cdb := make([]byte, 10)
	cdb[0] = 0x43
	cdb[2] = 0x05
	binary.BigEndian.PutUint16(cdb[7:9], uint16(allocation))
	return cdb
}

// cdTextLength returns the total response size announced by a READ TOC
// header, including the two length bytes.
func cdTextLength(header []byte) (int, error) {
	if len(header) < 4 {
		return 0, fmt.Errorf("short READ TOC header (%d bytes)", len(header))
	}
	n := int(binary.BigEndian.Uint16(header[0:2])) + 2
	if n <= 4 {
		return 0, fmt.Errorf("no CD-TEXT packs: %w", cdda.ErrUnsupported)
	}
	return n, nil
}
