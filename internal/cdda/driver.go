package cdda

import "cddasrc/internal/cdtext"

// Driver opens devices and answers device discovery queries.
type Driver interface {
	// Name identifies the backend in logs.
	Name() string
	Open(device string) (Disc, error)
	// DefaultDevice returns the backend's preferred drive or "".
	DefaultDevice() string
	// Devices lists candidate drive paths. Aliases of one drive may repeat.
	Devices() ([]string, error)
}

// Disc is an open device handle. Track numbers are TOC numbers; sector
// addresses are LSNs.
type Disc interface {
	Mode() (DiscMode, error)
	// FirstTrack returns the first track number or a negative value when
	// the TOC is unreadable.
	FirstTrack() int
	// NumTracks returns the number of TOC entries, lead-out excluded.
	NumTracks() int
	TrackStart(track int) int
	TrackSectors(track int) int
	TrackIsAudio(track int) bool
	// Text returns decoded CD-TEXT. Backends or discs without it return an
	// error wrapping ErrUnsupported.
	Text() (*cdtext.Text, error)
	// SetSpeed applies a drive speed multiplier.
	SetSpeed(speed int) error
	// ReadAudioSector fills dst (SectorSize bytes) with sector lsn.
	ReadAudioSector(dst []byte, lsn int) error
	Close() error
}
