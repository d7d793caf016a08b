package testsupport

import (
	"context"
	"testing"

	"cddasrc/internal/catalog"
	"cddasrc/internal/config"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordDisc stores a disc with the given MusicBrainz ID and audio tracks
// of the given lengths in sectors.
func RecordDisc(t testing.TB, store *catalog.Store, musicBrainzID string, lengths ...int) *catalog.Disc {
	t.Helper()

	d := &catalog.Disc{
		CDDBID:        "00000000",
		MusicBrainzID: musicBrainzID,
		TOC:           "1 0 0",
		TrackCount:    len(lengths),
	}
	start := 0
	for i, n := range lengths {
		d.Tracks = append(d.Tracks, catalog.Track{Number: i + 1, Start: start, End: start + n - 1, IsAudio: true})
		start += n
	}
	if err := store.RecordDisc(context.Background(), d); err != nil {
		t.Fatalf("store.RecordDisc: %v", err)
	}
	return d
}
