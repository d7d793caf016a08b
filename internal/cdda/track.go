package cdda

import (
	"time"

	"cddasrc/internal/discid"
)

// TrackText is the on-disc CD-TEXT attached to a track.
type TrackText struct {
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Track is one entry of the enumerated table of contents. Start and End are
// inclusive LSNs. End is Start+length-1 as reported; a zero-length track has
// End < Start.
type Track struct {
	Number  int        `json:"number"`
	IsAudio bool       `json:"is_audio"`
	Start   int        `json:"start"`
	End     int        `json:"end"`
	Text    *TrackText `json:"text,omitempty"`
}

// Sectors returns the number of sectors in the track.
func (t Track) Sectors() int {
	if t.End < t.Start {
		return 0
	}
	return t.End - t.Start + 1
}

// Duration returns the playing time of the track.
func (t Track) Duration() time.Duration {
	return SectorsDuration(t.Sectors())
}

// Artist returns the CD-TEXT performer or "".
func (t Track) Artist() string {
	if t.Text == nil {
		return ""
	}
	return t.Text.Artist
}

// Title returns the CD-TEXT title or "".
func (t Track) Title() string {
	if t.Text == nil {
		return ""
	}
	return t.Text.Title
}

// FindTrack returns the track numbered n.
func FindTrack(tracks []Track, n int) (Track, bool) {
	for _, t := range tracks {
		if t.Number == n {
			return t, true
		}
	}
	return Track{}, false
}

// AudioTracks filters tracks down to the audio ones.
func AudioTracks(tracks []Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.IsAudio {
			out = append(out, t)
		}
	}
	return out
}

// TOC builds the disc identifier input for tracks. The lead-out follows the
// last track.
func TOC(tracks []Track) discid.TOC {
	toc := discid.TOC{Tracks: make([]discid.Track, 0, len(tracks))}
	for _, t := range tracks {
		toc.Tracks = append(toc.Tracks, discid.Track{Number: t.Number, Start: t.Start, IsAudio: t.IsAudio})
	}
	if n := len(tracks); n > 0 {
		toc.LeadOut = tracks[n-1].End + 1
	}
	return toc
}

func cloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		if t.Text != nil {
			text := *t.Text
			t.Text = &text
		}
		out[i] = t
	}
	return out
}
