package discid

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// PregapSectors is the lead-in offset between LSN and LBA addressing.
	PregapSectors = 150
	// SectorsPerSecond is the Red Book frame rate.
	SectorsPerSecond = 75
	// dataTrackGap is the gap reserved before the data session on
	// CD-Extra discs (11400 sectors, 2:32).
	dataTrackGap = 11400
	maxTracks    = 99
)

// ErrNoAudioTracks is returned when a TOC has nothing to identify.
var ErrNoAudioTracks = errors.New("discid: no audio tracks")

// Track is one TOC entry. Start is an LSN.
type Track struct {
	Number  int
	Start   int
	IsAudio bool
}

// TOC is the minimal table of contents needed to derive disc IDs.
// LeadOut is the LSN of the first sector after the last track.
type TOC struct {
	Tracks  []Track
	LeadOut int
}

// IDs groups every identifier derived from one TOC.
type IDs struct {
	CDDB           string `json:"cddb"`
	CDDBFull       string `json:"cddb_full"`
	MusicBrainz    string `json:"musicbrainz"`
	MusicBrainzTOC string `json:"musicbrainz_toc"`
}

// Compute derives all identifiers for toc. The CDDB identifiers cover every
// track and are filled in even when the MusicBrainz ID cannot be derived, in
// which case the error is returned alongside them.
func Compute(toc TOC) (IDs, error) {
	if len(toc.Tracks) == 0 {
		return IDs{}, ErrNoAudioTracks
	}
	ids := IDs{
		CDDB:     fmt.Sprintf("%08x", CDDB(toc)),
		CDDBFull: CDDBFull(toc),
	}
	mb, err := MusicBrainz(toc)
	if err != nil {
		return ids, err
	}
	ids.MusicBrainz = mb
	ids.MusicBrainzTOC = MusicBrainzTOC(toc)
	return ids, nil
}

// CDDB returns the freedb disc ID. Every track takes part, data tracks
// included.
func CDDB(toc TOC) uint32 {
	if len(toc.Tracks) == 0 {
		return 0
	}
	var n int
	for _, t := range toc.Tracks {
		n += digitSum(lba(t.Start) / SectorsPerSecond)
	}
	total := lba(toc.LeadOut)/SectorsPerSecond - lba(toc.Tracks[0].Start)/SectorsPerSecond
	return uint32(n%0xff)<<24 | uint32(total)<<8 | uint32(len(toc.Tracks))
}

// CDDBFull returns the ID followed by the track count, each track offset in
// LBA, and the disc length in seconds, as used in CDDB queries.
func CDDBFull(toc TOC) string {
	parts := make([]string, 0, len(toc.Tracks)+3)
	parts = append(parts, fmt.Sprintf("%08x", CDDB(toc)), strconv.Itoa(len(toc.Tracks)))
	for _, t := range toc.Tracks {
		parts = append(parts, strconv.Itoa(lba(t.Start)))
	}
	parts = append(parts, strconv.Itoa(lba(toc.LeadOut)/SectorsPerSecond))
	return strings.Join(parts, " ")
}

// MusicBrainz returns the MusicBrainz disc ID computed over the audio session.
func MusicBrainz(toc TOC) (string, error) {
	first, last, leadOut, offsets, err := audioSession(toc)
	if err != nil {
		return "", err
	}

	h := sha1.New()
	fmt.Fprintf(h, "%02X", first)
	fmt.Fprintf(h, "%02X", last)
	fmt.Fprintf(h, "%08X", leadOut)
	for i := 1; i <= maxTracks; i++ {
		var offset int
		if idx := i - first; idx >= 0 && idx < len(offsets) {
			offset = offsets[idx]
		}
		fmt.Fprintf(h, "%08X", offset)
	}

	encoded := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return strings.NewReplacer("+", ".", "/", "_", "=", "-").Replace(encoded), nil
}

// MusicBrainzTOC returns the "first last leadout offsets..." string accepted
// by MusicBrainz lookups. It is empty when the disc has no audio tracks.
func MusicBrainzTOC(toc TOC) string {
	first, last, leadOut, offsets, err := audioSession(toc)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(offsets)+3)
	parts = append(parts, strconv.Itoa(first), strconv.Itoa(last), strconv.Itoa(leadOut))
	for _, offset := range offsets {
		parts = append(parts, strconv.Itoa(offset))
	}
	return strings.Join(parts, " ")
}

// audioSession returns the first track number, the last audio track number,
// the audio lead-out and the LBA offsets of every track in between. Data
// tracks between audio tracks keep their offsets. A data track following the
// last audio track moves the lead-out back by the session gap.
func audioSession(toc TOC) (first, last, leadOut int, offsets []int, err error) {
	lastAudio := -1
	for i, t := range toc.Tracks {
		if t.IsAudio {
			lastAudio = i
		}
	}
	if lastAudio == -1 {
		return 0, 0, 0, nil, ErrNoAudioTracks
	}
	first = toc.Tracks[0].Number
	last = toc.Tracks[lastAudio].Number
	for _, t := range toc.Tracks[:lastAudio+1] {
		offsets = append(offsets, lba(t.Start))
	}
	leadOut = lba(toc.LeadOut)
	if lastAudio+1 < len(toc.Tracks) {
		leadOut = lba(toc.Tracks[lastAudio+1].Start) - dataTrackGap
	}
	return first, last, leadOut, offsets, nil
}

func lba(lsn int) int {
	return lsn + PregapSectors
}

func digitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}
