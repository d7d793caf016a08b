// Package stream turns a cdda session into a seekable byte stream.
//
// A Reader covers one track or every audio track of the disc and yields raw
// little-endian 16-bit stereo PCM. It owns the retry policy the core leaves
// out: each failed sector is attempted Retries more times before the error
// is surfaced. cdda://[device#]track URIs select a device and track.
package stream
