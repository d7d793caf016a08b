// Package rip copies audio tracks from a disc into encoded files.
//
// A Ripper takes the per-drive lock, opens a cdda session, and streams each
// selected track through a reader goroutine into an encoder goroutine. The
// drive is read strictly in track order while up to rip.workers tracks are
// being encoded at once. Finished discs are recorded in the catalog.
package rip
