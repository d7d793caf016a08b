package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cddasrc/internal/cdda"
	"cddasrc/internal/logging"
)

var (
	// ErrNoTracks is returned when the disc has no audio tracks to play.
	ErrNoTracks = errors.New("stream: disc has no audio tracks")
	// ErrNoSuchTrack is returned for a track number missing from the TOC.
	ErrNoSuchTrack = errors.New("stream: no such track")
	// ErrDataTrack is returned when a data track is selected.
	ErrDataTrack    = errors.New("stream: track is not an audio track")
	errNegativeSeek = errors.New("stream: negative position")
)

// Mode selects what a Reader covers.
type Mode int

const (
	// ModeTrack plays one track.
	ModeTrack Mode = iota
	// ModeDisc plays every audio track back to back.
	ModeDisc
)

// Options configure a Reader.
type Options struct {
	Mode Mode
	// Track is the track to play in ModeTrack.
	Track int
	// Retries is the number of extra attempts per failed sector.
	Retries    int
	RetryDelay time.Duration
	Logger     *slog.Logger
	// Context aborts reads between sectors.
	Context context.Context
}

// SectorSource is the part of cdda.Source a Reader needs.
type SectorSource interface {
	ReadSector(sector int) (*cdda.Buffer, error)
	EnumerateTracks() ([]cdda.Track, error)
}

type span struct {
	track      int
	start, end int
}

func (s span) sectors() int { return s.end - s.start + 1 }

// Reader exposes a track or the whole disc as a byte stream of
// little-endian interleaved 16-bit stereo PCM.
type Reader struct {
	src     SectorSource
	opts    Options
	logger  *slog.Logger
	spans   []span
	tracks  []cdda.Track
	total   int
	pos     int64
	cur     *cdda.Buffer
	curIdx  int
	pending error
	retried int
}

var _ io.ReadSeekCloser = (*Reader)(nil)

// NewReader selects the sectors described by opts.
func NewReader(src SectorSource, opts Options) (*Reader, error) {
	tracks, err := src.EnumerateTracks()
	if err != nil {
		return nil, fmt.Errorf("enumerate tracks: %w", err)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	r := &Reader{
		src:    src,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "stream"),
		curIdx: -1,
	}

	switch opts.Mode {
	case ModeDisc:
		for _, t := range cdda.AudioTracks(tracks) {
			if t.Sectors() > 0 {
				r.spans = append(r.spans, span{track: t.Number, start: t.Start, end: t.End})
				r.tracks = append(r.tracks, t)
			}
		}
		if len(r.spans) == 0 {
			return nil, ErrNoTracks
		}
	default:
		if len(cdda.AudioTracks(tracks)) == 0 {
			return nil, ErrNoTracks
		}
		n := opts.Track
		if n == 0 {
			n = 1
		}
		t, ok := cdda.FindTrack(tracks, n)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNoSuchTrack, n)
		}
		if !t.IsAudio {
			return nil, fmt.Errorf("%w: %d", ErrDataTrack, n)
		}
		r.tracks = []cdda.Track{t}
		if t.Sectors() > 0 {
			r.spans = []span{{track: t.Number, start: t.Start, end: t.End}}
		}
	}
	for _, s := range r.spans {
		r.total += s.sectors()
	}
	return r, nil
}

// Open parses a cdda URI, opens its device on session, and returns a reader
// for the track. The caller closes both the reader and the session.
func Open(session *cdda.Session, rawURI string, opts Options) (*Reader, error) {
	u, err := ParseURI(rawURI)
	if err != nil {
		return nil, err
	}
	if err := session.Open(u.Device); err != nil {
		return nil, err
	}
	opts.Mode = ModeTrack
	opts.Track = u.Track
	r, err := NewReader(session, opts)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	return r, nil
}

// Tracks returns the tracks covered by the reader.
func (r *Reader) Tracks() []cdda.Track { return r.tracks }

// Sectors returns the number of sectors in the stream.
func (r *Reader) Sectors() int { return r.total }

// Size returns the stream length in bytes.
func (r *Reader) Size() int64 { return int64(r.total) * cdda.SectorSize }

// Duration returns the playing time of the stream.
func (r *Reader) Duration() time.Duration { return cdda.SectorsDuration(r.total) }

// Position returns the current sector index relative to the stream start.
func (r *Reader) Position() int { return int(r.pos / cdda.SectorSize) }

// Retries returns how many sector reads have been retried so far.
func (r *Reader) Retries() int { return r.retried }

// Read implements io.Reader. A sector that still fails after the configured
// retries ends the stream with its error once earlier bytes are delivered.
func (r *Reader) Read(p []byte) (int, error) {
	if r.pending != nil {
		err := r.pending
		r.pending = nil
		return 0, err
	}
	n := 0
	for n < len(p) {
		if r.pos >= r.Size() {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		idx := int(r.pos / cdda.SectorSize)
		if err := r.load(idx); err != nil {
			if n == 0 {
				return 0, err
			}
			r.pending = err
			return n, nil
		}
		off := int(r.pos % cdda.SectorSize)
		c := copy(p[n:], r.cur.Data[off:])
		n += c
		r.pos += int64(c)
	}
	return n, nil
}

// Seek implements io.Seeker. Offsets are rounded down to a whole stereo
// frame.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.Size() + offset
	default:
		return r.pos, fmt.Errorf("stream: invalid whence %d", whence)
	}
	if abs < 0 {
		return r.pos, errNegativeSeek
	}
	abs -= abs % cdda.BytesPerFrame
	r.pos = abs
	r.pending = nil
	return abs, nil
}

// SeekSector moves to the start of sector index n of the stream.
func (r *Reader) SeekSector(n int) error {
	_, err := r.Seek(int64(n)*cdda.SectorSize, io.SeekStart)
	return err
}

// Close releases the cached sector. It does not close the session.
func (r *Reader) Close() error {
	r.cur.Release()
	r.cur = nil
	r.curIdx = -1
	return nil
}

// physical maps a stream sector index to a disc LSN.
func (r *Reader) physical(idx int) (int, int) {
	for _, s := range r.spans {
		if idx < s.sectors() {
			return s.start + idx, s.track
		}
		idx -= s.sectors()
	}
	return -1, 0
}

func (r *Reader) load(idx int) error {
	if r.cur != nil && r.curIdx == idx {
		return nil
	}
	if err := r.opts.Context.Err(); err != nil {
		return err
	}
	r.cur.Release()
	r.cur = nil

	lsn, track := r.physical(idx)
	var lastErr error
	for attempt := 0; attempt <= r.opts.Retries; attempt++ {
		if attempt > 0 {
			r.retried++
			r.logger.Debug("retrying sector read",
				logging.Sector(lsn),
				logging.Track(track),
				logging.Int("attempt", attempt),
			)
			if r.opts.RetryDelay > 0 {
				select {
				case <-r.opts.Context.Done():
					return r.opts.Context.Err()
				case <-time.After(r.opts.RetryDelay):
				}
			}
		}
		buf, err := r.src.ReadSector(lsn)
		if err == nil {
			r.cur = buf
			r.curIdx = idx
			return nil
		}
		lastErr = err
		if errors.Is(err, cdda.ErrNotOpen) {
			break
		}
	}
	logging.WarnWithContext(r.logger, "sector unreadable", "sector_read_failed",
		logging.Sector(lsn),
		logging.Track(track),
		logging.Int("attempts", r.opts.Retries+1),
		logging.Error(lastErr),
		logging.String(logging.FieldImpact, "stream ends at this sector"),
		logging.String(logging.FieldErrorHint, "clean the disc or raise rip.read_retries"),
	)
	return fmt.Errorf("read track %d: %w", track, lastErr)
}
