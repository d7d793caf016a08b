package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cddasrc/internal/config"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store persists ripped discs.
type Store struct {
	db   *sql.DB
	path string
}

// Disc is one catalog entry.
type Disc struct {
	ID            int64     `json:"id"`
	CDDBID        string    `json:"cddb_id"`
	MusicBrainzID string    `json:"musicbrainz_id"`
	TOC           string    `json:"toc"`
	TrackCount    int       `json:"track_count"`
	Artist        string    `json:"artist,omitempty"`
	Title         string    `json:"title,omitempty"`
	Device        string    `json:"device"`
	RippedAt      time.Time `json:"ripped_at"`
	// Tracks is filled by LookupByMusicBrainz only.
	Tracks []Track `json:"tracks,omitempty"`
}

// Track is a track row of a catalog entry. Path is empty for tracks that
// were not written.
type Track struct {
	Number  int    `json:"number"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	IsAudio bool   `json:"is_audio"`
	Artist  string `json:"artist,omitempty"`
	Title   string `json:"title,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Open opens the catalog at cfg.Paths.CatalogPath, creating it as needed.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.CatalogPath)
}

// OpenPath opens the catalog database file at path.
func OpenPath(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is empty")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordDisc stores d and its tracks, replacing any entry with the same
// MusicBrainz ID. d.ID is set to the new row id. A zero RippedAt is
// recorded as now.
func (s *Store) RecordDisc(ctx context.Context, d *Disc) error {
	if d == nil {
		return errors.New("disc is nil")
	}
	if d.MusicBrainzID == "" {
		return errors.New("disc has no musicbrainz id")
	}
	if d.RippedAt.IsZero() {
		d.RippedAt = time.Now().UTC()
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		id, err := s.recordDisc(ctx, d)
		if err != nil {
			return err
		}
		d.ID = id
		return nil
	})
}

func (s *Store) recordDisc(ctx context.Context, d *Disc) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM discs WHERE musicbrainz_id = ?`, d.MusicBrainzID); err != nil {
		return 0, fmt.Errorf("replace disc: %w", err)
	}
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO discs (
            cddb_id, musicbrainz_id, toc, track_count, artist, title, device, ripped_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.CDDBID,
		d.MusicBrainzID,
		d.TOC,
		d.TrackCount,
		nullableString(d.Artist),
		nullableString(d.Title),
		nullableString(d.Device),
		d.RippedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert disc: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	for _, t := range d.Tracks {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO tracks (disc_id, number, start, "end", is_audio, artist, title, path)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, t.Number, t.Start, t.End, t.IsAudio,
			nullableString(t.Artist), nullableString(t.Title), nullableString(t.Path),
		); err != nil {
			return 0, fmt.Errorf("insert track %d: %w", t.Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit disc: %w", err)
	}
	return id, nil
}

const discColumns = "id, cddb_id, musicbrainz_id, toc, track_count, artist, title, device, ripped_at"

// ListDiscs returns all entries, most recent first, without tracks.
func (s *Store) ListDiscs(ctx context.Context) ([]Disc, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+discColumns+` FROM discs ORDER BY ripped_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list discs: %w", err)
	}
	defer rows.Close()

	var discs []Disc
	for rows.Next() {
		d, err := scanDisc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan disc: %w", err)
		}
		discs = append(discs, *d)
	}
	return discs, rows.Err()
}

// LookupByMusicBrainz returns the entry for a MusicBrainz disc ID with its
// tracks, or nil when the disc was never recorded.
func (s *Store) LookupByMusicBrainz(ctx context.Context, id string) (*Disc, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+discColumns+` FROM discs WHERE musicbrainz_id = ?`, id)
	d, err := scanDisc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup disc: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, start, "end", is_audio, artist, title, path FROM tracks WHERE disc_id = ? ORDER BY number`,
		d.ID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t                   Track
			artist, title, path sql.NullString
		)
		if err := rows.Scan(&t.Number, &t.Start, &t.End, &t.IsAudio, &artist, &title, &path); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		t.Artist, t.Title, t.Path = artist.String, title.String, path.String
		d.Tracks = append(d.Tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func scanDisc(scanner interface{ Scan(dest ...any) error }) (*Disc, error) {
	var (
		d                     Disc
		artist, title, device sql.NullString
		rippedRaw             string
	)
	if err := scanner.Scan(
		&d.ID, &d.CDDBID, &d.MusicBrainzID, &d.TOC, &d.TrackCount,
		&artist, &title, &device, &rippedRaw,
	); err != nil {
		return nil, err
	}
	d.Artist, d.Title, d.Device = artist.String, title.String, device.String
	if ts, err := time.Parse(time.RFC3339Nano, rippedRaw); err == nil {
		d.RippedAt = ts
	}
	return &d, nil
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
