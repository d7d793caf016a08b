package rip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cddasrc/internal/bus"
	"cddasrc/internal/catalog"
	"cddasrc/internal/cdda"
	"cddasrc/internal/config"
	"cddasrc/internal/disc"
	"cddasrc/internal/encode"
	"cddasrc/internal/logging"
	"cddasrc/internal/stream"
	"cddasrc/internal/textutil"
)

const (
	stageName = "rip"
	// chunkSectors is the unit handed from reader to encoder.
	chunkSectors = 25
	// chunkDepth bounds buffered chunks per track.
	chunkDepth = 8
	partSuffix = ".part"
)

// Catalog records finished rips.
type Catalog interface {
	RecordDisc(ctx context.Context, d *catalog.Disc) error
}

// ProgressFunc receives progress updates from the reader goroutine.
type ProgressFunc func(Progress)

// Progress describes how far the current track has been read.
type Progress struct {
	Track    int
	Index    int
	Count    int
	Sectors  int
	Total    int
	Percent  float64
	Retries  int
	Finished bool
}

// Request selects what to rip. Zero values fall back to the configuration.
type Request struct {
	Device string
	// Tracks lists track numbers to rip; empty means every audio track.
	Tracks    []int
	Format    string
	OutputDir string
	Progress  ProgressFunc
}

// File is one written track.
type File struct {
	Track   int    `json:"track"`
	Path    string `json:"path"`
	Sectors int    `json:"sectors"`
	Retries int    `json:"retries"`
}

// Result summarizes a completed rip.
type Result struct {
	RipID    string        `json:"rip_id"`
	Device   string        `json:"device"`
	Dir      string        `json:"dir"`
	Format   string        `json:"format"`
	Disc     *catalog.Disc `json:"disc,omitempty"`
	Files    []File        `json:"files"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Ripper runs rips against one driver.
type Ripper struct {
	cfg     *config.Config
	driver  cdda.Driver
	catalog Catalog
	bus     *bus.Bus
	logger  *slog.Logger
	alloc   cdda.Allocator
}

// Option customizes a Ripper.
type Option func(*Ripper)

// WithCatalog records finished rips in c.
func WithCatalog(c Catalog) Option {
	return func(r *Ripper) { r.catalog = c }
}

// WithBus forwards session tags and errors to b.
func WithBus(b *bus.Bus) Option {
	return func(r *Ripper) { r.bus = b }
}

// WithAllocator overrides the sector buffer allocator.
func WithAllocator(a cdda.Allocator) Option {
	return func(r *Ripper) { r.alloc = a }
}

// NewRipper constructs a Ripper.
func NewRipper(cfg *config.Config, driver cdda.Driver, logger *slog.Logger, opts ...Option) *Ripper {
	r := &Ripper{
		cfg:    cfg,
		driver: driver,
		logger: logging.NewComponentLogger(logger, "ripper"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	index int
	track cdda.Track
	path  string
	meta  encode.Metadata
}

// Rip copies the requested tracks. On failure no partially written track is
// left behind.
func (r *Ripper) Rip(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	ripID := logging.NewSessionID()
	ctx = logging.WithSessionID(ctx, ripID)

	device := r.resolveDevice(req.Device)
	if device == "" {
		return nil, Wrap(ErrDevice, stageName, "resolve device", "no CD device found; set device.path", cdda.ErrNoDevice)
	}
	ctx = logging.WithDevice(ctx, device)
	logger := logging.WithContext(ctx, r.logger)

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = r.cfg.Rip.Format
	}
	if format != config.FormatWAV && format != config.FormatFLAC {
		return nil, Wrap(ErrValidation, stageName, "select format", fmt.Sprintf("unsupported format %q", format), nil)
	}
	speed, err := cdda.ParseReadSpeed(r.cfg.Device.ReadSpeed)
	if err != nil {
		return nil, Wrap(ErrConfiguration, stageName, "read speed", "device.read_speed out of range", err)
	}

	lock := disc.NewDeviceLock(r.cfg.Device.LockDir, device)
	if err := lock.TryLock(); err != nil {
		return nil, Wrap(ErrDevice, stageName, "lock device", "another rip is using this drive", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("device unlock failed", logging.Error(err))
		}
	}()

	opts := []cdda.Option{cdda.WithLogger(r.logger), cdda.WithBus(r.bus), cdda.WithReadSpeed(speed)}
	if r.alloc != nil {
		opts = append(opts, cdda.WithAllocator(r.alloc))
	}
	session := cdda.NewSession(r.driver, opts...)
	if err := session.Open(device); err != nil {
		return nil, Wrap(ErrDevice, stageName, "open disc", "insert an audio CD and check drive permissions", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("session close failed", logging.Error(err))
		}
	}()

	tracks, err := session.EnumerateTracks()
	if err != nil {
		return nil, Wrap(ErrDevice, stageName, "read toc", "", err)
	}
	selected, err := selectTracks(tracks, req.Tracks)
	if err != nil {
		return nil, Wrap(ErrValidation, stageName, "select tracks", "", err)
	}

	dir := req.OutputDir
	if dir == "" {
		dir = filepath.Join(r.cfg.Paths.OutputDir, albumDir(session, ripID))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Wrap(ErrOutput, stageName, "create output dir", "set paths.output_dir to a writable location", err)
	}

	jobs := buildJobs(session, selected, tracks, dir, format)
	logger.Info("rip started",
		logging.Int("tracks", len(jobs)),
		logging.String("format", format),
		logging.String("output_dir", dir),
		logging.String(logging.FieldDiscID, session.IDs().MusicBrainz),
	)

	files, err := r.ripTracks(ctx, session, jobs, format, req.Progress)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, Wrap(ErrDevice, stageName, "copy tracks", "", err)
	}

	result := &Result{
		RipID:  ripID,
		Device: device,
		Dir:    dir,
		Format: format,
		Files:  files,
		Disc:   catalogEntry(session, tracks, files),
	}
	if r.catalog != nil {
		if err := r.catalog.RecordDisc(ctx, result.Disc); err != nil {
			logging.WarnWithContext(logger, "catalog update failed", "catalog_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "files were written but the disc is not in the catalog"),
				logging.String(logging.FieldErrorHint, "check paths.catalog_path permissions"),
			)
			r.bus.PostWarning(bus.WarningMessage{
				Source:  cdda.SourceName,
				Domain:  bus.DomainResource,
				Code:    bus.CodeWrite,
				Message: "Could not record disc in catalog.",
				Debug:   err.Error(),
			})
			result.Warnings = append(result.Warnings, "catalog: "+err.Error())
		}
	}
	result.Elapsed = time.Since(started)
	logger.Info("rip finished",
		logging.Int("tracks", len(files)),
		logging.Duration("elapsed", result.Elapsed),
		logging.String("output_dir", dir),
	)
	return result, nil
}

func (r *Ripper) resolveDevice(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	if r.cfg.Device.Path != "" {
		return r.cfg.Device.Path
	}
	return r.driver.DefaultDevice()
}

func (r *Ripper) workers() int {
	if r.cfg.Rip.Workers < 1 {
		return 1
	}
	return r.cfg.Rip.Workers
}

// ripTracks reads the jobs in order on one goroutine and encodes each on
// its own goroutine, at most workers at a time.
func (r *Ripper) ripTracks(ctx context.Context, session stream.SectorSource, jobs []job, format string, progress ProgressFunc) ([]File, error) {
	files := make([]File, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	slots := make(chan struct{}, r.workers())

	g.Go(func() error {
		for i, j := range jobs {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			pcm := make(chan []byte, chunkDepth)
			g.Go(func() error {
				defer func() { <-slots }()
				return r.encodeTrack(gctx, j, format, pcm, &files[i])
			})
			if err := r.readTrack(gctx, session, j, len(jobs), pcm, progress, &files[i]); err != nil {
				return err
			}
			close(pcm)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// readTrack streams one track into pcm. pcm is left open on failure so the
// encoder aborts through the group context instead of finalizing a short
// file.
func (r *Ripper) readTrack(ctx context.Context, session stream.SectorSource, j job, count int, pcm chan<- []byte, progress ProgressFunc, file *File) error {
	logger := logging.WithContext(logging.WithTrack(ctx, j.track.Number), r.logger)
	reader, err := stream.NewReader(session, stream.Options{
		Mode:       stream.ModeTrack,
		Track:      j.track.Number,
		Retries:    r.cfg.Rip.ReadRetries,
		RetryDelay: 50 * time.Millisecond,
		Logger:     r.logger,
		Context:    ctx,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	total := reader.Sectors()
	sampler := logging.NewProgressSampler(10)
	report := func(finished bool) {
		p := Progress{
			Track:    j.track.Number,
			Index:    j.index,
			Count:    count,
			Sectors:  reader.Position(),
			Total:    total,
			Retries:  reader.Retries(),
			Finished: finished,
		}
		if total > 0 {
			p.Percent = float64(p.Sectors) / float64(total) * 100
		} else {
			p.Percent = 100
		}
		if sampler.ShouldLog(p.Track, p.Percent) {
			logger.Debug("rip progress",
				logging.Float64("percent", p.Percent),
				logging.Int("sectors", p.Sectors),
				logging.Int("retries", p.Retries),
			)
		}
		if progress != nil {
			progress(p)
		}
	}

	report(false)
	for {
		buf := make([]byte, chunkSectors*cdda.SectorSize)
		n, err := io.ReadFull(reader, buf)
		if n > 0 {
			select {
			case pcm <- buf[:n]:
			case <-ctx.Done():
				return ctx.Err()
			}
			report(false)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("track %d: %w", j.track.Number, err)
		}
	}
	file.Track = j.track.Number
	file.Sectors = total
	file.Retries = reader.Retries()
	report(true)
	return nil
}

// encodeTrack writes chunks from pcm to j.path through a .part file that is
// renamed once the encoder is closed.
func (r *Ripper) encodeTrack(ctx context.Context, j job, format string, pcm <-chan []byte, file *File) (err error) {
	tmp := j.path + partSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return Wrap(ErrOutput, stageName, "create file", "", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	enc, err := encode.New(format, f, j.meta)
	if err != nil {
		return Wrap(ErrOutput, stageName, "start encoder", "", err)
	}
	for {
		select {
		case chunk, ok := <-pcm:
			if !ok {
				return r.finishTrack(enc, f, tmp, j.path, file)
			}
			if _, err := enc.Write(chunk); err != nil {
				return Wrap(ErrOutput, stageName, "encode", j.path, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Ripper) finishTrack(enc encode.Encoder, f *os.File, tmp, path string, file *File) error {
	if err := enc.Close(); err != nil {
		return Wrap(ErrOutput, stageName, "finalize", path, err)
	}
	if err := f.Close(); err != nil {
		return Wrap(ErrOutput, stageName, "close file", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Wrap(ErrOutput, stageName, "rename", path, err)
	}
	file.Path = path
	r.logger.Info("track written", logging.String("path", path))
	return nil
}

// selectTracks returns the audio tracks named in want, or all audio tracks
// when want is empty.
func selectTracks(tracks []cdda.Track, want []int) ([]cdda.Track, error) {
	if len(want) == 0 {
		audio := cdda.AudioTracks(tracks)
		if len(audio) == 0 {
			return nil, stream.ErrNoTracks
		}
		return audio, nil
	}
	seen := make(map[int]bool, len(want))
	var out []cdda.Track
	for _, n := range want {
		if seen[n] {
			continue
		}
		seen[n] = true
		t, ok := cdda.FindTrack(tracks, n)
		if !ok {
			return nil, fmt.Errorf("%w: %d", stream.ErrNoSuchTrack, n)
		}
		if !t.IsAudio {
			return nil, fmt.Errorf("%w: %d", stream.ErrDataTrack, n)
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b cdda.Track) int { return a.Number - b.Number })
	return out, nil
}

func buildJobs(session *cdda.Session, selected, all []cdda.Track, dir, format string) []job {
	text := session.Text()
	audioCount := len(cdda.AudioTracks(all))
	jobs := make([]job, 0, len(selected))
	for i, t := range selected {
		md := encode.Metadata{
			Title:  textutil.CleanText(t.Title()),
			Artist: textutil.CleanText(t.Artist()),
			Track:  t.Number,
			Tracks: audioCount,
			DiscID: session.IDs().MusicBrainz,
		}
		if text != nil {
			md.Album = textutil.CleanText(text.Album.Title)
			md.AlbumArtist = textutil.CleanText(text.Album.Performer)
			if md.Artist == "" {
				md.Artist = md.AlbumArtist
			}
		}
		jobs = append(jobs, job{
			index: i + 1,
			track: t,
			path:  filepath.Join(dir, encode.FileName(t.Number, md.Title, format)),
			meta:  md,
		})
	}
	return jobs
}

// albumDir names the per-disc output directory: "Performer - Title" from
// CD-TEXT, else the CDDB ID, else the rip ID.
func albumDir(session *cdda.Session, ripID string) string {
	if text := session.Text(); text != nil {
		parts := make([]string, 0, 2)
		for _, v := range []string{text.Album.Performer, text.Album.Title} {
			if v = textutil.CleanText(v); v != "" {
				parts = append(parts, v)
			}
		}
		if name := textutil.SanitizeFileName(strings.Join(parts, " - ")); name != "" {
			return name
		}
	}
	if id := session.IDs().CDDB; id != "" {
		return "cd-" + id
	}
	return "cd-" + ripID[:8]
}

func catalogEntry(session *cdda.Session, tracks []cdda.Track, files []File) *catalog.Disc {
	ids := session.IDs()
	d := &catalog.Disc{
		CDDBID:        ids.CDDB,
		MusicBrainzID: ids.MusicBrainz,
		TOC:           ids.MusicBrainzTOC,
		TrackCount:    len(tracks),
		Device:        session.Device(),
	}
	if text := session.Text(); text != nil {
		d.Artist = textutil.CleanText(text.Album.Performer)
		d.Title = textutil.CleanText(text.Album.Title)
	}
	paths := make(map[int]string, len(files))
	for _, f := range files {
		paths[f.Track] = f.Path
	}
	for _, t := range tracks {
		d.Tracks = append(d.Tracks, catalog.Track{
			Number:  t.Number,
			Start:   t.Start,
			End:     t.End,
			IsAudio: t.IsAudio,
			Artist:  textutil.CleanText(t.Artist()),
			Title:   textutil.CleanText(t.Title()),
			Path:    paths[t.Number],
		})
	}
	return d
}
