// Package discid derives the CDDB (freedb) and MusicBrainz identifiers of an
// audio CD from its table of contents.
//
// Offsets are accepted as LSNs, the addressing the session layer reports, and
// converted to LBA (LSN + 150) before hashing. The package has no device
// dependencies and can be fed a TOC from any source.
package discid
