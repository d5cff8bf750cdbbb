// Package audio holds the small set of PCM format and sample-rate
// constants shared by the frame buffer, VAD iterator, and segment
// collector. It carries no state of its own.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SampleRate is the only sample rate this engine supports. A different
// rate would require a different frame size (see Format.BytesPerSample
// and the frame package's FrameSamples constant).
const SampleRate = 16000

// Format identifies the wire encoding of a chunk of PCM samples.
type Format string

const (
	// FormatPCMS16LE is 16-bit signed little-endian integer PCM.
	FormatPCMS16LE Format = "pcm_s16le"
	// FormatPCMF32LE is 32-bit IEEE-754 little-endian float PCM.
	FormatPCMF32LE Format = "pcm_f32le"
)

// BytesPerSample returns the on-wire size of one sample in this format,
// or 0 if the format is not recognized.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatPCMS16LE:
		return 2
	case FormatPCMF32LE:
		return 4
	default:
		return 0
	}
}

func (f Format) Valid() bool {
	return f.BytesPerSample() > 0
}

// DecodeInto converts raw bytes in the given format into dst, which must
// be exactly len(data)/f.BytesPerSample() long.
func DecodeInto(dst []float32, data []byte, f Format) error {
	bps := f.BytesPerSample()
	if bps == 0 {
		return fmt.Errorf("audio: unsupported sample format %q", f)
	}
	if len(dst) != len(data)/bps {
		return fmt.Errorf("audio: destination length %d does not match %d decoded samples", len(dst), len(data)/bps)
	}

	switch f {
	case FormatPCMS16LE:
		for i := range dst {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			dst[i] = float32(v) / 32768.0
		}
	case FormatPCMF32LE:
		for i := range dst {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			dst[i] = math.Float32frombits(bits)
		}
	}
	return nil
}

// EncodeS16LE renders samples as 16-bit signed little-endian PCM,
// clamping out-of-range values the way a real codec would rather than
// wrapping.
func EncodeS16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32768.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// EncodeF32LE renders samples as 32-bit IEEE-754 little-endian PCM.
func EncodeF32LE(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
