// Package frame bridges arbitrary-size PCM chunks to the fixed-size
// frames the VAD model consumes.
package frame

// FrameSamples is the model's input size: 512 samples at 16 kHz mono.
// A different sample rate would require a different frame size.
const FrameSamples = 512

// FrameDurationMs is the duration, in milliseconds, a single frame
// covers at audio.SampleRate.
const FrameDurationMs = FrameSamples * 1000 / 16000

// Frame is a fixed-size, value-typed window of audio. Once produced by
// a Buffer it is immutable; copying a Frame copies its samples.
type Frame struct {
	Samples          [FrameSamples]float32
	StartTimestampMs int64
}
