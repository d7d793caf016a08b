package encode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"cddasrc/internal/cdda"
)

// vendor is recorded in the Vorbis comment block.
const vendor = "cddasrc"

// seekWriter hides Close so the flac encoder leaves the file open for the
// caller while still rewriting StreamInfo through Seek.
type seekWriter struct {
	io.WriteSeeker
}

// FLAC writes uncompressed (verbatim) FLAC frames of one sector each.
type FLAC struct {
	enc     *flac.Encoder
	buf     frameBuffer
	pending []byte
	frames  uint64
	left    []int32
	right   []int32
	closed  bool
}

// NewFLAC writes the stream header and a Vorbis comment for md to w.
func NewFLAC(w io.WriteSeeker, md Metadata) (*FLAC, error) {
	info := &meta.StreamInfo{
		BlockSizeMin:  cdda.SamplesPerSector,
		BlockSizeMax:  cdda.SamplesPerSector,
		SampleRate:    cdda.SampleRate,
		NChannels:     cdda.Channels,
		BitsPerSample: cdda.BitsPerSample,
	}
	body := &meta.VorbisComment{Vendor: vendor, Tags: md.comments()}
	comment := &meta.Block{
		Header: meta.Header{Type: meta.TypeVorbisComment, Length: vorbisCommentLength(body)},
		Body:   body,
	}
	enc, err := flac.NewEncoder(seekWriter{w}, info, comment)
	if err != nil {
		return nil, fmt.Errorf("write flac header: %w", err)
	}
	return &FLAC{
		enc:   enc,
		left:  make([]int32, cdda.SamplesPerSector),
		right: make([]int32, cdda.SamplesPerSector),
	}, nil
}

// vorbisCommentLength is the encoded body size of vc. The encoder writes a
// block with a zero length as an empty block and drops the body.
func vorbisCommentLength(vc *meta.VorbisComment) int64 {
	n := 4 + len(vc.Vendor) + 4
	for _, tag := range vc.Tags {
		n += 4 + len(tag[0]) + 1 + len(tag[1])
	}
	return int64(n)
}

// Write implements io.Writer. Samples are emitted in whole sectors; a short
// tail is held until Close.
func (e *FLAC) Write(p []byte) (int, error) {
	if e.closed {
		return 0, errClosed
	}
	e.pending = append(e.pending, e.buf.frames(p)...)
	off := 0
	for len(e.pending)-off >= cdda.SectorSize {
		if err := e.writeFrame(e.pending[off : off+cdda.SectorSize]); err != nil {
			return 0, err
		}
		off += cdda.SectorSize
	}
	e.pending = append(e.pending[:0], e.pending[off:]...)
	return len(p), nil
}

// Close flushes the final short frame and updates StreamInfo.
func (e *FLAC) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.buf.leftover() > 0 {
		return fmt.Errorf("flac: %d trailing bytes do not form a frame", e.buf.leftover())
	}
	if len(e.pending) > 0 {
		if err := e.writeFrame(e.pending); err != nil {
			return err
		}
		e.pending = nil
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finalize flac: %w", err)
	}
	return nil
}

// Frames returns the number of FLAC frames written.
func (e *FLAC) Frames() uint64 { return e.frames }

func (e *FLAC) writeFrame(pcm []byte) error {
	n := len(pcm) / cdda.BytesPerFrame
	left, right := e.left[:n], e.right[:n]
	for i := range n {
		left[i] = int32(sample(pcm, i*cdda.BytesPerFrame))
		right[i] = int32(sample(pcm, i*cdda.BytesPerFrame+2))
	}
	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(n),
			SampleRate:        cdda.SampleRate,
			Channels:          frame.ChannelsLR,
			BitsPerSample:     cdda.BitsPerSample,
			Num:               e.frames,
		},
		Subframes: []*frame.Subframe{
			{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: left, NSamples: n},
			{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: right, NSamples: n},
		},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("write flac frame %d: %w", e.frames, err)
	}
	e.frames++
	return nil
}
