// Package catalog records ripped discs in a SQLite database.
//
// Each rip stores the disc identifiers and TOC together with the tracks
// that were written, so later runs can recognize a disc by its MusicBrainz
// ID. Re-recording a disc replaces the earlier entry. The store runs in WAL
// mode and retries statements that hit SQLITE_BUSY with a short backoff.
package catalog
