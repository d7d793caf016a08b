// Package cdda reads raw audio sectors from Audio CDs.
//
// A Session owns at most one open Disc handle obtained from a Driver
// backend. Open validates the disc mode (pure CD-DA or mixed mode) before
// the table of contents is walked, applies the configured read speed, and
// publishes album and per-track tags on the message bus. ReadSector returns
// one 2352-byte Red Book frame per call and never retries; retry policy
// belongs to the stream and rip layers.
//
// Sector numbers are logical sector numbers (LSN) throughout: the first
// sector of the program area is 0. Disc identifiers derived from the track
// table convert to LBA (LSN + 150) themselves.
//
// Backends live in sub-packages: ioctl talks to the Linux CDROM driver,
// libcdio wraps the native library (build tag libcdio), and cddatest is an
// in-memory fake for tests.
package cdda
