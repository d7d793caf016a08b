package stream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cddasrc/internal/cdda"
	"cddasrc/internal/cdda/cddatest"
	"cddasrc/internal/stream"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		raw     string
		want    stream.URI
		wantErr bool
	}{
		{raw: "cdda://3", want: stream.URI{Track: 3}},
		{raw: "cdda://", want: stream.URI{Track: 1}},
		{raw: "cdda:///dev/sr1#7", want: stream.URI{Device: "/dev/sr1", Track: 7}},
		{raw: "CDDA:///dev/cdrom#", want: stream.URI{Device: "/dev/cdrom", Track: 1}},
		{raw: "cdda://0", wantErr: true},
		{raw: "cdda://-2", wantErr: true},
		{raw: "cdda://abc", wantErr: true},
		{raw: "file:///tmp/x", wantErr: true},
		{raw: "/dev/sr0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := stream.ParseURI(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, stream.ErrInvalidURI) {
					t.Fatalf("ParseURI error = %v, want ErrInvalidURI", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseURI = %+v, want %+v", got, tt.want)
			}
			again, err := stream.ParseURI(got.String())
			if err != nil || again != got {
				t.Fatalf("String() %q does not round trip: %+v, %v", got.String(), again, err)
			}
		})
	}
}

func openSession(t *testing.T, disc *cddatest.Disc) *cdda.Session {
	t.Helper()
	s := cdda.NewSession(cddatest.NewDriver("/dev/sr0", disc))
	if err := s.Open(""); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func expected(lsns ...int) []byte {
	var out []byte
	sector := make([]byte, cdda.SectorSize)
	for _, lsn := range lsns {
		cddatest.Pattern(lsn, sector)
		out = append(out, sector...)
	}
	return out
}

func TestTrackReaderReturnsTrackSectors(t *testing.T) {
	s := openSession(t, cddatest.NewDisc(1, []int{3, 2}))
	r, err := stream.NewReader(s, stream.Options{Track: 2})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	if r.Sectors() != 2 || r.Size() != 2*cdda.SectorSize {
		t.Fatalf("Sectors=%d Size=%d", r.Sectors(), r.Size())
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, expected(3, 4)) {
		t.Fatal("track 2 content mismatch")
	}
	if r.Position() != 2 {
		t.Fatalf("Position() = %d at end", r.Position())
	}
}

func TestDiscReaderSkipsDataTracks(t *testing.T) {
	s := openSession(t, cddatest.NewDisc(1, []int{2, 5, 1}, 2))
	r, err := stream.NewReader(s, stream.Options{Mode: stream.ModeDisc})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, expected(0, 1, 7)) {
		t.Fatal("disc stream content mismatch")
	}
	if len(r.Tracks()) != 2 {
		t.Fatalf("Tracks() = %+v", r.Tracks())
	}
	if r.Duration() != 3*time.Second/75 {
		t.Fatalf("Duration() = %s", r.Duration())
	}
}

func TestNewReaderTrackSelection(t *testing.T) {
	tests := []struct {
		name    string
		disc    *cddatest.Disc
		opts    stream.Options
		wantErr error
	}{
		{name: "no tracks", disc: cddatest.NewDisc(1, nil), wantErr: stream.ErrNoTracks},
		{name: "only data", disc: cddatest.NewDisc(1, []int{10}, 1), wantErr: stream.ErrNoTracks},
		{name: "missing track", disc: cddatest.NewDisc(1, []int{10}), opts: stream.Options{Track: 4}, wantErr: stream.ErrNoSuchTrack},
		{name: "data track", disc: cddatest.NewDisc(1, []int{10, 10}, 2), opts: stream.Options{Track: 2}, wantErr: stream.ErrDataTrack},
		{name: "default track", disc: cddatest.NewDisc(1, []int{10})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openSession(t, tt.disc)
			_, err := stream.NewReader(s, tt.opts)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewReader: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewReader error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeekAlignsToFrames(t *testing.T) {
	s := openSession(t, cddatest.NewDisc(1, []int{4}))
	r, err := stream.NewReader(s, stream.Options{Track: 1})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	pos, err := r.Seek(int64(cdda.SectorSize*2+7), io.SeekStart)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if pos != int64(cdda.SectorSize*2+4) {
		t.Fatalf("Seek returned %d", pos)
	}
	if r.Position() != 2 {
		t.Fatalf("Position() = %d", r.Position())
	}
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(buf, expected(2)[4:12]) {
		t.Fatal("data after seek mismatch")
	}

	if pos, err := r.Seek(-int64(cdda.SectorSize), io.SeekEnd); err != nil || pos != int64(cdda.SectorSize*3) {
		t.Fatalf("SeekEnd = %d, %v", pos, err)
	}
	if _, err := r.Seek(-1, io.SeekStart); err == nil {
		t.Fatal("expected error for negative seek")
	}
	if err := r.SeekSector(4); err != nil {
		t.Fatalf("SeekSector: %v", err)
	}
	if n, err := r.Read(buf); n != 0 || err != io.EOF {
		t.Fatalf("Read at end = %d, %v", n, err)
	}
}

func TestReaderRetriesFailedSectors(t *testing.T) {
	disc := cddatest.NewDisc(1, []int{3})
	disc.FailReadTimes(1, 2, errors.New("scratch"))
	s := openSession(t, disc)
	r, err := stream.NewReader(s, stream.Options{Track: 1, Retries: 2})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, expected(0, 1, 2)) {
		t.Fatal("content mismatch after retries")
	}
	if r.Retries() != 2 {
		t.Fatalf("Retries() = %d", r.Retries())
	}
}

func TestReaderSurfacesPersistentFailureAfterData(t *testing.T) {
	disc := cddatest.NewDisc(1, []int{3})
	cause := errors.New("unreadable")
	disc.FailReads = map[int]error{1: cause}
	s := openSession(t, disc)
	r, err := stream.NewReader(s, stream.Options{Track: 1, Retries: 1})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	buf := make([]byte, 3*cdda.SectorSize)
	n, err := r.Read(buf)
	if err != nil || n != cdda.SectorSize {
		t.Fatalf("first Read = %d, %v; want one sector", n, err)
	}
	_, err = r.Read(buf)
	var readErr *cdda.SectorReadError
	if !errors.As(err, &readErr) || readErr.Sector != 1 || !errors.Is(err, cause) {
		t.Fatalf("second Read error = %v", err)
	}
	if disc.Reads() != 3 {
		t.Fatalf("reads = %d, want 1 good + 2 attempts", disc.Reads())
	}
}

func TestReaderStopsOnCancelledContext(t *testing.T) {
	s := openSession(t, cddatest.NewDisc(1, []int{3}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := stream.NewReader(s, stream.Options{Track: 1, Context: ctx})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Read(make([]byte, 10)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Read error = %v, want context.Canceled", err)
	}
}

func TestOpenURI(t *testing.T) {
	driver := cddatest.NewDriver("/dev/sr0", cddatest.NewDisc(1, []int{5}))
	driver.Insert("/dev/sr1", cddatest.NewDisc(1, []int{2, 3}))
	s := cdda.NewSession(driver)

	r, err := stream.Open(s, "cdda:///dev/sr1#2", stream.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Device() != "/dev/sr1" || r.Sectors() != 3 {
		t.Fatalf("device=%q sectors=%d", s.Device(), r.Sectors())
	}
	r.Close()
	s.Close()

	if _, err := stream.Open(s, "cdda://9", stream.Options{}); !errors.Is(err, stream.ErrNoSuchTrack) {
		t.Fatalf("Open missing track error = %v", err)
	}
	if s.IsOpen() {
		t.Fatal("session left open after failed stream open")
	}
}
