// Package encode writes ripped CD-DA PCM to audio files.
//
// Encoders accept the raw little-endian 16-bit stereo stream produced by
// the stream package in chunks of any size and buffer partial frames
// internally. WAV output goes through go-audio/wav; FLAC output is written
// with mewkiz/flac as verbatim frames of one sector (588 samples) each,
// tagged with a Vorbis comment block.
package encode
