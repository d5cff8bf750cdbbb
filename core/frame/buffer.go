package frame

import (
	"errors"
	"fmt"

	"github.com/koscakluka/cascade/core/audio"
)

// ErrInvalidLength is returned by Append when the chunk length is not a
// whole number of samples for the given format.
var ErrInvalidLength = errors.New("frame: chunk length is not a whole number of samples")

// Buffer is a monotonic, append-only logical stream of samples that
// yields exactly FrameSamples-sized frames. It is touched only by a
// single goroutine per stream.Processor (see the concurrency model in
// SPEC_FULL.md §5), so it carries no internal locking.
type Buffer struct {
	// samples holds the not-yet-consumed tail of the stream. Popping a
	// frame trims it from the front and the backing array is reused by
	// later appends, which is the "ring buffer with two cursors" the
	// design calls for rendered as a plain Go slice.
	samples []float32

	written  uint64
	consumed uint64
}

// New returns an empty Buffer with a small amount of frames worth of
// headroom pre-allocated.
func New() *Buffer {
	return &Buffer{samples: make([]float32, 0, FrameSamples*8)}
}

// Append decodes and appends raw PCM bytes in the given format.
func (b *Buffer) Append(data []byte, format audio.Format) error {
	bps := format.BytesPerSample()
	if bps == 0 {
		return fmt.Errorf("frame: unsupported sample format %q", format)
	}
	if len(data)%bps != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidLength, len(data), bps)
	}

	n := len(data) / bps
	start := len(b.samples)
	b.samples = append(b.samples, make([]float32, n)...)
	if err := audio.DecodeInto(b.samples[start:], data, format); err != nil {
		b.samples = b.samples[:start]
		return err
	}

	b.written += uint64(n)
	return nil
}

// PopFrame returns the next full frame if one is available. It never
// blocks and never re-emits a frame once popped.
func (b *Buffer) PopFrame() (Frame, bool) {
	if len(b.samples) < FrameSamples {
		return Frame{}, false
	}

	f := Frame{StartTimestampMs: sampleIndexToMs(b.consumed)}
	copy(f.Samples[:], b.samples[:FrameSamples])
	b.consumed += FrameSamples

	remaining := copy(b.samples, b.samples[FrameSamples:])
	b.samples = b.samples[:remaining]

	return f, true
}

// Flush returns a final frame zero-padded on the right if any residual
// samples remain, or false if the buffer is exactly frame-aligned.
// Intended to be called once at stream close.
func (b *Buffer) Flush() (Frame, bool) {
	if len(b.samples) == 0 {
		return Frame{}, false
	}

	f := Frame{StartTimestampMs: sampleIndexToMs(b.consumed)}
	copy(f.Samples[:], b.samples)
	b.consumed += FrameSamples
	b.samples = b.samples[:0]

	return f, true
}

// WrittenSamples reports the total number of samples ever appended.
func (b *Buffer) WrittenSamples() uint64 { return b.written }

// ConsumedSamples reports the total number of samples ever handed out
// via PopFrame or Flush.
func (b *Buffer) ConsumedSamples() uint64 { return b.consumed }

func sampleIndexToMs(samples uint64) int64 {
	return int64(samples) * 1000 / audio.SampleRate
}
