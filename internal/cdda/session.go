package cdda

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"cddasrc/internal/bus"
	"cddasrc/internal/cdtext"
	"cddasrc/internal/discid"
	"cddasrc/internal/logging"
)

// SourceName identifies session messages on the bus.
const SourceName = "cddasrc"

// Source is the disc access surface consumed by the stream and rip layers.
type Source interface {
	Open(device string) error
	Close() error
	ReadSector(sector int) (*Buffer, error)
	EnumerateTracks() ([]Track, error)
	DefaultDevice() string
	ProbeDevices() []string
}

var _ Source = (*Session)(nil)

// Session owns one disc handle at a time. Apart from the property accessors,
// methods must be called from a single goroutine.
type Session struct {
	driver Driver
	alloc  Allocator
	bus    *bus.Bus
	base   *slog.Logger
	logger *slog.Logger

	speed      atomic.Int32
	devMu      sync.Mutex
	devicePath string

	disc      Disc
	device    string
	mode      DiscMode
	tracks    []Track
	text      *cdtext.Text
	ids       discid.IDs
	sessionID string
}

// Option configures a Session.
type Option func(*Session)

// WithAllocator sets the sector buffer allocator. The default allocates
// from the heap.
func WithAllocator(a Allocator) Option {
	return func(s *Session) {
		if a != nil {
			s.alloc = a
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.base = logger }
}

// WithBus sets the bus that receives tag, error, and warning messages.
func WithBus(b *bus.Bus) Option {
	return func(s *Session) { s.bus = b }
}

// WithReadSpeed sets the initial read speed.
func WithReadSpeed(speed ReadSpeed) Option {
	return func(s *Session) { s.speed.Store(int32(speed.Int())) }
}

// NewSession creates a closed session backed by driver.
func NewSession(driver Driver, opts ...Option) *Session {
	s := &Session{driver: driver, alloc: HeapAllocator{}}
	s.speed.Store(ReadSpeedDefault)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.base, "cdda").With(logging.String("backend", driver.Name()))
	return s
}

// Open acquires device, checks that it holds an audio disc, applies the read
// speed, and enumerates the tracks. An empty device falls back to the
// device property and then to the backend default. On failure no handle is
// retained.
func (s *Session) Open(device string) error {
	if s.disc != nil {
		return ErrAlreadyOpen
	}
	if device == "" {
		device = s.DevicePath()
	}
	if device == "" {
		device = s.DefaultDevice()
	}
	logger := s.logger.With(logging.Device(device))
	if device == "" {
		s.postError(bus.DomainResource, bus.CodeNotFound, "No CD device found.", ErrNoDevice.Error(), ErrNoDevice)
		return &DeviceOpenError{Err: ErrNoDevice}
	}

	disc, err := s.driver.Open(device)
	if err != nil {
		logging.ErrorWithContext(logger, "could not open CD device", "device_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the device path and that the user may read it"),
		)
		s.postError(bus.DomainResource, bus.CodeOpenRead, "Could not open CD device for reading.",
			fmt.Sprintf("open %s: %v", device, err), err)
		return &DeviceOpenError{Device: device, Err: err}
	}

	mode, err := disc.Mode()
	if err != nil || !mode.IsAudio() {
		s.closeQuietly(logger, disc)
		notAudio := &NotAudioDiscError{Device: device, Mode: mode, Err: err}
		logging.ErrorWithContext(logger, "disc is not an audio CD", "not_audio_disc",
			logging.String("mode", mode.String()),
			logging.String(logging.FieldErrorHint, "insert an audio or mixed-mode CD"),
		)
		s.postError(bus.DomainResource, bus.CodeOpenRead, "Disc is not an Audio CD.", notAudio.Error(), notAudio)
		return notAudio
	}

	s.applySpeed(logger, disc)

	s.disc = disc
	s.device = device
	s.mode = mode
	s.sessionID = logging.NewSessionID()
	s.logger = s.logger.With(logging.String(logging.FieldSessionID, s.sessionID))

	s.text = s.readText(logger, disc)
	s.tracks = enumerate(disc, s.text)
	if len(s.tracks) > 0 {
		ids, err := discid.Compute(TOC(s.tracks))
		if err != nil {
			logging.WarnWithContext(logger, "disc id computation failed", "disc_id_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "MusicBrainz disc ID tags not posted"),
			)
		}
		s.ids = ids
	}
	s.postTags()

	logger.Info("disc opened",
		logging.String("mode", mode.String()),
		logging.Int("tracks", len(s.tracks)),
		logging.String(logging.FieldDiscID, s.ids.MusicBrainz),
		logging.String("read_speed", s.Speed().String()),
	)
	return nil
}

// Close releases the handle and clears per-session state. Calling Close on a
// session without a handle is a programming error and panics.
func (s *Session) Close() error {
	if s.disc == nil {
		panic("cdda: Close called without an open device")
	}
	err := s.disc.Close()
	s.logger.Debug("disc closed", logging.Device(s.device))
	s.disc = nil
	s.device = ""
	s.mode = ModeUnknown
	s.tracks = nil
	s.text = nil
	s.ids = discid.IDs{}
	s.sessionID = ""
	s.logger = logging.NewComponentLogger(s.base, "cdda").With(logging.String("backend", s.driver.Name()))
	if err != nil {
		return fmt.Errorf("close %s: %w", s.driver.Name(), err)
	}
	return nil
}

// IsOpen reports whether a handle is held.
func (s *Session) IsOpen() bool { return s.disc != nil }

// Device returns the path of the open device.
func (s *Session) Device() string { return s.device }

// Mode returns the mode detected at open.
func (s *Session) Mode() DiscMode { return s.mode }

// IDs returns the disc identifiers computed at open. They are empty when the
// disc has no audio tracks.
func (s *Session) IDs() discid.IDs { return s.ids }

// Text returns the CD-TEXT read at open, or nil.
func (s *Session) Text() *cdtext.Text { return s.text }

// SessionID identifies the current open session in logs.
func (s *Session) SessionID() string { return s.sessionID }

// EnumerateTracks returns a copy of the track list built at open. An empty
// list is not an error; callers decide what a disc without tracks means.
func (s *Session) EnumerateTracks() ([]Track, error) {
	if s.disc == nil {
		return nil, ErrNotOpen
	}
	return cloneTracks(s.tracks), nil
}

// ReadSector reads one raw audio sector into a buffer from the session
// allocator. The caller owns the returned buffer and must Release it.
func (s *Session) ReadSector(sector int) (*Buffer, error) {
	if s.disc == nil {
		return nil, ErrNotOpen
	}
	buf, err := s.alloc.Allocate(SectorSize)
	if err != nil {
		s.logger.Error("sector buffer allocation failed", logging.Sector(sector), logging.Error(err))
		return nil, &AllocationError{Size: SectorSize, Err: err}
	}
	if err := s.disc.ReadAudioSector(buf.Data, sector); err != nil {
		buf.Release()
		debug := fmt.Sprintf("read audio sector at %d failed: %v", sector, err)
		s.logger.Debug(debug, logging.Sector(sector))
		s.postError(bus.DomainResource, bus.CodeRead, "Could not read from CD.", debug, err)
		return nil, &SectorReadError{Sector: sector, Err: err}
	}
	buf.Sector = sector
	return buf, nil
}

// DefaultDevice returns the backend's default drive.
func (s *Session) DefaultDevice() string {
	return s.driver.DefaultDevice()
}

// ProbeDevices lists candidate drives. Exact duplicate paths are dropped but
// different paths to one physical drive are all returned. The result is nil
// when nothing is found.
func (s *Session) ProbeDevices() []string {
	devices, err := s.driver.Devices()
	if err != nil {
		s.logger.Debug("device probe failed", logging.Error(err))
	}
	var out []string
	seen := make(map[string]struct{}, len(devices))
	for _, dev := range devices {
		if dev == "" {
			continue
		}
		if _, ok := seen[dev]; ok {
			continue
		}
		seen[dev] = struct{}{}
		out = append(out, dev)
	}
	return out
}

func enumerate(disc Disc, text *cdtext.Text) []Track {
	first := disc.FirstTrack()
	count := disc.NumTracks()
	if count <= 0 || first < 0 {
		return []Track{}
	}
	tracks := make([]Track, 0, count)
	for n := first; n < first+count; n++ {
		start := disc.TrackStart(n)
		length := disc.TrackSectors(n)
		t := Track{
			Number:  n,
			IsAudio: disc.TrackIsAudio(n),
			Start:   start,
			End:     start + length - 1,
		}
		if entry, ok := text.Track(n); ok {
			t.Text = &TrackText{Artist: entry.Performer, Title: entry.Title}
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func (s *Session) applySpeed(logger *slog.Logger, disc Disc) {
	n, fixed := s.Speed().Fixed()
	if !fixed {
		return
	}
	err := disc.SetSpeed(n)
	if err == nil {
		logger.Debug("read speed applied", logging.Int("speed", n))
		return
	}
	if errors.Is(err, ErrUnsupported) {
		s.warnUnsupported(logger, &UnsupportedFeatureWarning{Feature: "read speed", Err: err})
		return
	}
	logging.WarnWithContext(logger, "could not set read speed", "read_speed_failed",
		logging.Int("speed", n),
		logging.Error(err),
		logging.String(logging.FieldImpact, "drive keeps its current speed"),
	)
	s.postWarning(bus.CodeUnsupported, "Could not set read speed.", err.Error())
}

func (s *Session) readText(logger *slog.Logger, disc Disc) *cdtext.Text {
	text, err := disc.Text()
	if err == nil {
		return text
	}
	// CD-TEXT is optional; most discs carry none.
	logger.Debug("no CD-TEXT available", logging.Error(err))
	return nil
}

func (s *Session) warnUnsupported(logger *slog.Logger, w *UnsupportedFeatureWarning) {
	logging.WarnWithContext(logger, "feature unsupported by backend", "feature_unsupported",
		logging.String("feature", w.Feature),
		logging.Error(w),
	)
	s.postWarning(bus.CodeUnsupported, "Feature not supported: "+w.Feature+".", w.Error())
}

func (s *Session) postTags() {
	album := bus.Tags{}
	album.Set(bus.TagTrackCount, strconv.Itoa(len(s.tracks)))
	album.Set(bus.TagCDDBID, s.ids.CDDB)
	album.Set(bus.TagCDDBIDFull, s.ids.CDDBFull)
	album.Set(bus.TagMusicBrainzID, s.ids.MusicBrainz)
	album.Set(bus.TagMusicBrainzTO, s.ids.MusicBrainzTOC)
	if s.text != nil {
		album.Set(bus.TagAlbum, s.text.Album.Title)
		album.Set(bus.TagAlbumArtist, s.text.Album.Performer)
	}
	s.bus.PostTags(bus.TagMessage{Source: SourceName, Tags: album})

	for _, t := range s.tracks {
		if t.Text == nil {
			continue
		}
		tags := bus.Tags{}
		tags.Set(bus.TagTrackNumber, strconv.Itoa(t.Number))
		tags.Set(bus.TagArtist, t.Text.Artist)
		tags.Set(bus.TagTitle, t.Text.Title)
		s.bus.PostTags(bus.TagMessage{Source: SourceName, Track: t.Number, Tags: tags})
	}
}

func (s *Session) postError(domain, code, message, debug string, err error) {
	s.bus.PostError(bus.ErrorMessage{
		Source:  SourceName,
		Domain:  domain,
		Code:    code,
		Message: message,
		Debug:   debug,
		Err:     err,
	})
}

func (s *Session) postWarning(code, message, debug string) {
	s.bus.PostWarning(bus.WarningMessage{
		Source:  SourceName,
		Domain:  bus.DomainCore,
		Code:    code,
		Message: message,
		Debug:   debug,
	})
}

func (s *Session) closeQuietly(logger *slog.Logger, disc Disc) {
	if err := disc.Close(); err != nil {
		logger.Debug("close after failed open", logging.Error(err))
	}
}
