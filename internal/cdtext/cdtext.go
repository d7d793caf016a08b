package cdtext

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// PackSize is the length of one CD-TEXT pack including its CRC.
const PackSize = 18

const (
	headerSize   = 4
	payloadStart = 4
	payloadEnd   = 16

	packTitle     = 0x80
	packPerformer = 0x81
	packSizeInfo  = 0x8f
)

// Character codes announced in the size information pack.
const (
	CharsetISO8859_1 = 0x00
	CharsetASCII     = 0x01
	CharsetMSJIS     = 0x80
)

// ErrMalformed is returned when the input is not a sequence of packs.
var ErrMalformed = errors.New("cdtext: malformed pack data")

// Entry is the text attached to the album (track 0) or a single track.
type Entry struct {
	Title     string `json:"title,omitempty"`
	Performer string `json:"performer,omitempty"`
}

// Empty reports whether the entry carries no text.
func (e Entry) Empty() bool {
	return e.Title == "" && e.Performer == ""
}

// Text is the decoded first language block of a disc.
type Text struct {
	Charset int
	Album   Entry
	Tracks  map[int]Entry
	// Skipped counts packs dropped for a CRC mismatch.
	Skipped int
}

// Track returns the entry for track n.
func (t *Text) Track(n int) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.Tracks[n]
	return e, ok && !e.Empty()
}

type pack struct {
	kind  byte
	track int
	seq   int
	block int
	dbcc  bool
	text  []byte
}

// Parse decodes raw READ TOC format 5 output. The 4-byte response header is
// optional.
func Parse(data []byte) (*Text, error) {
	if len(data) >= headerSize && (len(data)-headerSize)%PackSize == 0 && len(data)%PackSize != 0 {
		data = data[headerSize:]
	}
	if len(data) == 0 || len(data)%PackSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}

	out := &Text{Tracks: make(map[int]Entry)}
	byKind := make(map[byte][]pack)
	for off := 0; off < len(data); off += PackSize {
		raw := data[off : off+PackSize]
		if !validCRC(raw) {
			out.Skipped++
			continue
		}
		p := pack{
			kind:  raw[0],
			track: int(raw[1] & 0x7f),
			seq:   int(raw[2]),
			block: int(raw[3]>>4) & 0x07,
			dbcc:  raw[3]&0x80 != 0,
			text:  raw[payloadStart:payloadEnd],
		}
		if p.block != 0 {
			continue
		}
		byKind[p.kind] = append(byKind[p.kind], p)
	}

	if info := byKind[packSizeInfo]; len(info) > 0 {
		sort.Slice(info, func(i, j int) bool { return info[i].seq < info[j].seq })
		out.Charset = int(info[0].text[0])
	}
	dec := decoderFor(out.Charset)

	for _, kind := range []byte{packTitle, packPerformer} {
		strs := collect(byKind[kind])
		for track, raw := range strs {
			value := decode(dec, raw)
			entry := out.Tracks[track]
			if track == 0 {
				entry = out.Album
			}
			switch kind {
			case packTitle:
				entry.Title = value
			case packPerformer:
				entry.Performer = value
			}
			if track == 0 {
				out.Album = entry
			} else {
				out.Tracks[track] = entry
			}
		}
	}
	return out, nil
}

// collect joins the payloads of one pack type and splits them into
// per-track strings. A lone tab repeats the previous track's value.
func collect(packs []pack) map[int][]byte {
	if len(packs) == 0 {
		return nil
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].seq < packs[j].seq })

	dbcc := packs[0].dbcc
	var stream []byte
	for _, p := range packs {
		stream = append(stream, p.text...)
	}

	sep := []byte{0}
	tab := []byte{'\t'}
	if dbcc {
		sep = []byte{0, 0}
		tab = []byte{'\t', '\t'}
	}

	out := make(map[int][]byte)
	track := packs[0].track
	var prev []byte
	for len(stream) > 0 {
		idx := bytes.Index(stream, sep)
		if idx < 0 {
			// Unterminated tail belongs to a truncated read.
			break
		}
		value := stream[:idx]
		stream = stream[idx+len(sep):]
		if bytes.Equal(value, tab) {
			value = prev
		}
		out[track] = value
		prev = value
		track++
	}
	return out
}

func decoderFor(charset int) *encoding.Decoder {
	switch charset {
	case CharsetMSJIS:
		return japanese.ShiftJIS.NewDecoder()
	case CharsetASCII:
		return nil
	default:
		return charmap.ISO8859_1.NewDecoder()
	}
}

func decode(dec *encoding.Decoder, raw []byte) string {
	if dec == nil {
		return string(bytes.TrimSpace(raw))
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return string(bytes.TrimSpace(out))
}

// validCRC checks the pack CRC. Drives that do not report a CRC leave both
// bytes zero, which is accepted.
func validCRC(raw []byte) bool {
	stored := uint16(raw[16])<<8 | uint16(raw[17])
	if stored == 0 {
		return true
	}
	return stored == CRC(raw[:16])
}

// CRC returns the inverted CRC-16/CCITT of a pack body.
func CRC(body []byte) uint16 {
	var crc uint16
	for _, b := range body {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return ^crc
}
