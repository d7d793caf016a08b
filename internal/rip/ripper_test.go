package rip_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"

	"cddasrc/internal/catalog"
	"cddasrc/internal/cdda"
	"cddasrc/internal/cdda/cddatest"
	"cddasrc/internal/cdtext"
	"cddasrc/internal/config"
	"cddasrc/internal/disc"
	"cddasrc/internal/rip"
	"cddasrc/internal/testsupport"
)

// wavHeaderBytes is the canonical RIFF header size written by go-audio/wav.
const wavHeaderBytes = 44

type memCatalog struct {
	mu    sync.Mutex
	discs []*catalog.Disc
	err   error
}

func (c *memCatalog) RecordDisc(_ context.Context, d *catalog.Disc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.discs = append(c.discs, d)
	return nil
}

func newRipper(t *testing.T, d *cddatest.Disc, opts ...rip.Option) (*rip.Ripper, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFormat(config.FormatWAV))
	driver := cddatest.NewDriver(cfg.Device.Path, d)
	return rip.NewRipper(cfg, driver, nil, opts...), cfg
}

func TestRipWritesEveryAudioTrack(t *testing.T) {
	d := cddatest.NewDisc(1, []int{10, 30, 5}, 3)
	d.CDText = &cdtext.Text{
		Album:  cdtext.Entry{Title: "Album", Performer: "Band"},
		Tracks: map[int]cdtext.Entry{1: {Title: "Opener"}, 2: {Title: "Closer/Reprise"}},
	}
	mem := &memCatalog{}
	ripper, cfg := newRipper(t, d, rip.WithCatalog(mem))

	var (
		mu       sync.Mutex
		finished []int
	)
	res, err := ripper.Rip(context.Background(), rip.Request{
		Progress: func(p rip.Progress) {
			if p.Finished {
				mu.Lock()
				finished = append(finished, p.Track)
				mu.Unlock()
				if p.Percent != 100 || p.Count != 2 {
					t.Errorf("final progress = %+v", p)
				}
			}
		},
	})
	if err != nil {
		t.Fatalf("Rip: %v", err)
	}

	wantDir := filepath.Join(cfg.Paths.OutputDir, "Band - Album")
	if res.Dir != wantDir {
		t.Fatalf("Dir = %q, want %q", res.Dir, wantDir)
	}
	wantFiles := map[int]string{
		1: filepath.Join(wantDir, "01 - Opener.wav"),
		2: filepath.Join(wantDir, "02 - Closer-Reprise.wav"),
	}
	if len(res.Files) != 2 {
		t.Fatalf("Files = %+v", res.Files)
	}
	for _, f := range res.Files {
		if f.Path != wantFiles[f.Track] {
			t.Fatalf("track %d path = %q, want %q", f.Track, f.Path, wantFiles[f.Track])
		}
		info, err := os.Stat(f.Path)
		if err != nil {
			t.Fatalf("stat %s: %v", f.Path, err)
		}
		if want := int64(wavHeaderBytes + f.Sectors*cdda.SectorSize); info.Size() != want {
			t.Fatalf("%s size = %d, want %d", f.Path, info.Size(), want)
		}
	}
	if len(finished) != 2 || finished[0] != 1 || finished[1] != 2 {
		t.Fatalf("finished order = %v", finished)
	}

	if len(mem.discs) != 1 {
		t.Fatalf("catalog records = %d", len(mem.discs))
	}
	entry := mem.discs[0]
	if entry.MusicBrainzID == "" || entry.Artist != "Band" || entry.TrackCount != 3 {
		t.Fatalf("catalog entry = %+v", entry)
	}
	if entry.Tracks[2].IsAudio || entry.Tracks[2].Path != "" {
		t.Fatalf("data track entry = %+v", entry.Tracks[2])
	}
	if !d.Closed() {
		t.Fatal("session not closed after rip")
	}
}

func TestRipSelectedTracksWithoutText(t *testing.T) {
	d := cddatest.NewDisc(1, []int{4, 4, 4})
	ripper, cfg := newRipper(t, d)

	res, err := ripper.Rip(context.Background(), rip.Request{Tracks: []int{3, 2, 3}, Format: "FLAC"})
	if err != nil {
		t.Fatalf("Rip: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(res.Dir), "cd-") || filepath.Dir(res.Dir) != cfg.Paths.OutputDir {
		t.Fatalf("Dir = %q", res.Dir)
	}
	if len(res.Files) != 2 || res.Files[0].Track != 2 || res.Files[1].Track != 3 {
		t.Fatalf("Files = %+v", res.Files)
	}
	if got := filepath.Base(res.Files[0].Path); got != "02 - Track 02.flac" {
		t.Fatalf("file name = %q", got)
	}
	if res.Format != config.FormatFLAC {
		t.Fatalf("Format = %q", res.Format)
	}
}

func TestRipFLACFilesParse(t *testing.T) {
	tests := []struct {
		name   string
		disc   func() *cddatest.Disc
		tracks int
		title  string
	}{
		{
			name:   "audio disc without text",
			disc:   func() *cddatest.Disc { return cddatest.NewDisc(1, []int{6, 3}) },
			tracks: 2,
		},
		{
			name: "mixed disc with text",
			disc: func() *cddatest.Disc {
				d := cddatest.NewDisc(1, []int{5, 8, 4}, 2)
				d.CDText = &cdtext.Text{
					Album:  cdtext.Entry{Title: "Album", Performer: "Band"},
					Tracks: map[int]cdtext.Entry{1: {Title: "Opener"}},
				}
				return d
			},
			tracks: 2,
			title:  "Opener",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ripper, _ := newRipper(t, tt.disc())
			res, err := ripper.Rip(context.Background(), rip.Request{Format: "flac"})
			if err != nil {
				t.Fatalf("Rip: %v", err)
			}
			if len(res.Files) != tt.tracks {
				t.Fatalf("Files = %+v", res.Files)
			}
			for _, f := range res.Files {
				stream, err := flac.ParseFile(f.Path)
				if err != nil {
					t.Fatalf("ParseFile %s: %v", f.Path, err)
				}
				if stream.Info.SampleRate != cdda.SampleRate || stream.Info.NChannels != cdda.Channels {
					t.Errorf("%s StreamInfo = %+v", f.Path, stream.Info)
				}
				if want := uint64(f.Sectors * cdda.SamplesPerSector); stream.Info.NSamples != want {
					t.Errorf("%s samples = %d, want %d", f.Path, stream.Info.NSamples, want)
				}
				comments := map[string]string{}
				for _, block := range stream.Blocks {
					if vc, ok := block.Body.(*meta.VorbisComment); ok {
						for _, tag := range vc.Tags {
							comments[tag[0]] = tag[1]
						}
					}
				}
				stream.Close()
				if comments["MUSICBRAINZ_DISCID"] == "" {
					t.Errorf("%s missing disc id comment: %v", f.Path, comments)
				}
				if f.Track == 1 && tt.title != "" && comments["TITLE"] != tt.title {
					t.Errorf("%s TITLE = %q, want %q", f.Path, comments["TITLE"], tt.title)
				}
			}
		})
	}
}

func TestRipRejectsBadSelection(t *testing.T) {
	tests := []struct {
		name   string
		disc   *cddatest.Disc
		req    rip.Request
		marker error
	}{
		{name: "data track", disc: cddatest.NewDisc(1, []int{4, 4}, 2), req: rip.Request{Tracks: []int{2}}, marker: rip.ErrValidation},
		{name: "missing track", disc: cddatest.NewDisc(1, []int{4}), req: rip.Request{Tracks: []int{9}}, marker: rip.ErrValidation},
		{name: "bad format", disc: cddatest.NewDisc(1, []int{4}), req: rip.Request{Format: "mp3"}, marker: rip.ErrValidation},
		{name: "no disc", disc: &cddatest.Disc{DiscMode: cdda.ModeNoDisc}, marker: rip.ErrDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ripper, _ := newRipper(t, tt.disc)
			_, err := ripper.Rip(context.Background(), tt.req)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("Rip error = %v, want %v", err, tt.marker)
			}
		})
	}
}

func TestRipReadFailureLeavesNoPartialFiles(t *testing.T) {
	d := cddatest.NewDisc(1, []int{5, 5})
	d.FailReads = map[int]error{7: errors.New("medium error")}
	ripper, cfg := newRipper(t, d)
	out := filepath.Join(testsupport.BaseDir(cfg), "out")

	_, err := ripper.Rip(context.Background(), rip.Request{OutputDir: out})
	var readErr *cdda.SectorReadError
	if !errors.As(err, &readErr) || readErr.Sector != 7 {
		t.Fatalf("Rip error = %v, want SectorReadError at 7", err)
	}
	if rip.ExitCode(err) != 3 {
		t.Fatalf("ExitCode = %d", rip.ExitCode(err))
	}
	entries, _ := os.ReadDir(out)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".part") || strings.HasPrefix(e.Name(), "02") {
			t.Fatalf("unexpected leftover %s", e.Name())
		}
	}
}

func TestRipHonorsDeviceLock(t *testing.T) {
	ripper, cfg := newRipper(t, cddatest.NewDisc(1, []int{4}))
	held := disc.NewDeviceLock(cfg.Device.LockDir, cfg.Device.Path)
	if err := held.TryLock(); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer held.Unlock()

	_, err := ripper.Rip(context.Background(), rip.Request{})
	if !errors.Is(err, disc.ErrDeviceBusy) || !errors.Is(err, rip.ErrDevice) {
		t.Fatalf("Rip error = %v, want busy device", err)
	}
}

func TestRipCancelled(t *testing.T) {
	ripper, _ := newRipper(t, cddatest.NewDisc(1, []int{200}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ripper.Rip(ctx, rip.Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Rip error = %v, want context.Canceled", err)
	}
}

func TestRipCatalogFailureIsWarning(t *testing.T) {
	mem := &memCatalog{err: errors.New("read-only database")}
	ripper, _ := newRipper(t, cddatest.NewDisc(1, []int{3}), rip.WithCatalog(mem))
	res, err := ripper.Rip(context.Background(), rip.Request{})
	if err != nil {
		t.Fatalf("Rip: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("Warnings = %v", res.Warnings)
	}
}

func TestRipRecordsInSQLiteCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ripper := rip.NewRipper(cfg, cddatest.NewDriver(cfg.Device.Path, cddatest.NewDisc(1, []int{6, 6})), nil, rip.WithCatalog(store))

	res, err := ripper.Rip(context.Background(), rip.Request{})
	if err != nil {
		t.Fatalf("Rip: %v", err)
	}
	got, err := store.LookupByMusicBrainz(context.Background(), res.Disc.MusicBrainzID)
	if err != nil || got == nil {
		t.Fatalf("LookupByMusicBrainz = %+v, %v", got, err)
	}
	if len(got.Tracks) != 2 || got.Tracks[1].Path != res.Files[1].Path {
		t.Fatalf("catalog tracks = %+v", got.Tracks)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: 0},
		{err: rip.Wrap(rip.ErrValidation, "rip", "select", "", nil), want: 2},
		{err: rip.Wrap(rip.ErrDevice, "rip", "open", "", errors.New("x")), want: 3},
		{err: rip.Wrap(rip.ErrOutput, "", "", "", nil), want: 4},
		{err: errors.New("other"), want: 1},
	}
	for _, tt := range tests {
		if got := rip.ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
