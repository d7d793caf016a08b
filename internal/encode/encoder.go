package encode

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cddasrc/internal/cdda"
	"cddasrc/internal/config"
	"cddasrc/internal/textutil"
)

// ErrUnknownFormat is returned for output formats without an encoder.
var ErrUnknownFormat = errors.New("encode: unknown format")

var errClosed = errors.New("encode: encoder closed")

// Encoder consumes raw CD-DA PCM and writes an audio file.
type Encoder interface {
	io.Writer
	// Close flushes buffered samples and finalizes headers. It does not
	// close the underlying writer.
	Close() error
}

// Metadata tags an encoded track.
type Metadata struct {
	Artist      string
	Album       string
	AlbumArtist string
	Title       string
	Track       int
	Tracks      int
	DiscID      string
}

// New returns an encoder for format writing to w.
func New(format string, w io.WriteSeeker, md Metadata) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.FormatWAV:
		return NewWAV(w), nil
	case config.FormatFLAC:
		return NewFLAC(w, md)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.FormatFLAC:
		return ".flac"
	default:
		return ".wav"
	}
}

// FileName builds "NN - Title.ext" for a track. Tracks without a title are
// named "NN - Track NN".
func FileName(track int, title, format string) string {
	number := fmt.Sprintf("%02d", track)
	title = textutil.SanitizeFileName(title)
	if title == "" {
		title = "Track " + number
	}
	return number + " - " + title + Extension(format)
}

// comments returns Vorbis comment pairs for md, skipping empty values.
func (md Metadata) comments() [][2]string {
	var tags [][2]string
	add := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			tags = append(tags, [2]string{name, value})
		}
	}
	add("TITLE", md.Title)
	add("ARTIST", md.Artist)
	add("ALBUM", md.Album)
	add("ALBUMARTIST", md.AlbumArtist)
	if md.Track > 0 {
		add("TRACKNUMBER", strconv.Itoa(md.Track))
	}
	if md.Tracks > 0 {
		add("TRACKTOTAL", strconv.Itoa(md.Tracks))
	}
	add("MUSICBRAINZ_DISCID", md.DiscID)
	return tags
}

// frameBuffer collects whole stereo frames from arbitrarily sized writes.
type frameBuffer struct {
	partial []byte
}

// frames appends p to any held bytes and returns the complete frames. The
// returned slice is only valid until the next call.
func (b *frameBuffer) frames(p []byte) []byte {
	if len(b.partial) == 0 && len(p)%cdda.BytesPerFrame == 0 {
		return p
	}
	b.partial = append(b.partial, p...)
	whole := len(b.partial) - len(b.partial)%cdda.BytesPerFrame
	out := make([]byte, whole)
	copy(out, b.partial[:whole])
	b.partial = append(b.partial[:0], b.partial[whole:]...)
	return out
}

func (b *frameBuffer) leftover() int { return len(b.partial) }

// sample decodes the little-endian signed 16-bit sample at p[i:].
func sample(p []byte, i int) int16 {
	return int16(uint16(p[i]) | uint16(p[i+1])<<8)
}
