package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Scheme is the URI scheme handled by this package.
const Scheme = "cdda"

// ErrInvalidURI is returned for URIs that are not cdda://[device#]track.
var ErrInvalidURI = errors.New("stream: invalid cdda URI")

// URI addresses one track, optionally on a specific device:
// cdda://3, cdda:///dev/sr1#3. Track 0 never appears in a parsed URI.
type URI struct {
	Device string
	Track  int
}

// ParseURI parses a cdda URI. A missing track selects track 1.
func ParseURI(raw string) (URI, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || !strings.EqualFold(scheme, Scheme) {
		return URI{}, fmt.Errorf("%w: %q", ErrInvalidURI, raw)
	}

	var u URI
	location := rest
	if device, track, hasDevice := strings.Cut(rest, "#"); hasDevice {
		u.Device = device
		location = track
	}
	if location == "" {
		u.Track = 1
		return u, nil
	}
	track, err := strconv.Atoi(location)
	if err != nil || track < 1 {
		return URI{}, fmt.Errorf("%w: bad track %q in %q", ErrInvalidURI, location, raw)
	}
	u.Track = track
	return u, nil
}

// String formats u as a cdda URI.
func (u URI) String() string {
	track := u.Track
	if track < 1 {
		track = 1
	}
	if u.Device == "" {
		return fmt.Sprintf("%s://%d", Scheme, track)
	}
	return fmt.Sprintf("%s://%s#%d", Scheme, u.Device, track)
}
