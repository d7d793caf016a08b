package bus

import (
	"sort"
	"strings"
)

// Error domains.
const (
	DomainResource = "resource"
	DomainCore     = "core"
)

// Error and warning codes.
const (
	CodeOpenRead        = "open_read"
	CodeRead            = "read"
	CodeNotFound        = "not_found"
	CodeInvalidProperty = "invalid_property"
	CodeUnsupported     = "unsupported"
	CodeWrite           = "write"
)

// Tag keys.
const (
	TagArtist        = "artist"
	TagTitle         = "title"
	TagAlbum         = "album"
	TagAlbumArtist   = "album-artist"
	TagTrackNumber   = "track-number"
	TagTrackCount    = "track-count"
	TagCDDBID        = "cddb-discid"
	TagCDDBIDFull    = "cddb-discid-full"
	TagMusicBrainzID = "musicbrainz-discid"
	TagMusicBrainzTO = "musicbrainz-toc"
)

// Tags maps tag keys to values.
type Tags map[string]string

// Keys returns the tag keys in sorted order.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores value under key when value is non-empty.
func (t Tags) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	t[key] = value
}

// TagMessage carries metadata for the disc (Track == 0) or one track.
type TagMessage struct {
	Source string
	Track  int
	Tags   Tags
}

// ErrorMessage is a structured error event.
type ErrorMessage struct {
	Source  string
	Domain  string
	Code    string
	Message string
	Debug   string
	Err     error
}

// WarningMessage is a structured, non-fatal event.
type WarningMessage struct {
	Source  string
	Domain  string
	Code    string
	Message string
	Debug   string
}
