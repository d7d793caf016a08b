package encode

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"cddasrc/internal/cdda"
)

// wavAudioFormat is the WAVE_FORMAT_PCM tag.
const wavAudioFormat = 1

// WAV writes a canonical 44-byte header RIFF file.
type WAV struct {
	enc    *wav.Encoder
	buf    frameBuffer
	ints   *audio.IntBuffer
	closed bool
}

// NewWAV returns a WAV encoder writing to w.
func NewWAV(w io.WriteSeeker) *WAV {
	return &WAV{
		enc: wav.NewEncoder(w, cdda.SampleRate, cdda.BitsPerSample, cdda.Channels, wavAudioFormat),
		ints: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: cdda.Channels, SampleRate: cdda.SampleRate},
			SourceBitDepth: cdda.BitsPerSample,
		},
	}
}

// Write implements io.Writer.
func (e *WAV) Write(p []byte) (int, error) {
	if e.closed {
		return 0, errClosed
	}
	frames := e.buf.frames(p)
	if len(frames) == 0 {
		return len(p), nil
	}
	n := len(frames) / 2
	if cap(e.ints.Data) < n {
		e.ints.Data = make([]int, n)
	}
	e.ints.Data = e.ints.Data[:n]
	for i := range n {
		e.ints.Data[i] = int(sample(frames, i*2))
	}
	if err := e.enc.Write(e.ints); err != nil {
		return 0, fmt.Errorf("write wav samples: %w", err)
	}
	return len(p), nil
}

// Close writes the final RIFF sizes.
func (e *WAV) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.buf.leftover() > 0 {
		return fmt.Errorf("wav: %d trailing bytes do not form a frame", e.buf.leftover())
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
