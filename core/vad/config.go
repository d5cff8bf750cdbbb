// Package vad implements the Silero-style hysteresis state machine that
// turns a stream of per-frame speech probabilities into start/end speech
// events.
package vad

// Config holds the thresholds that govern onset and offset detection.
type Config struct {
	// Threshold is the probability at or above which a frame is treated
	// as speech. Offset detection uses Threshold-0.15 as a separate,
	// lower bar, so a single noisy frame near the boundary cannot
	// immediately flip the state back and forth.
	Threshold float64

	// SpeechPadMs is subtracted from the sample position just past the
	// trigger frame (clamped at zero) when reporting a speech start, to
	// recover audio that precedes the frame that pushed the probability
	// over Threshold. It is added to the silence-onset position when
	// reporting a speech end.
	SpeechPadMs int

	// MinSilenceDurationMs is how long the probability must stay below
	// the offset bar before a speech end is actually emitted.
	MinSilenceDurationMs int

	// SampleRate is the audio sample rate frames are measured against.
	SampleRate int
}

// DefaultConfig returns the thresholds used by the reference Silero VAD
// model at 16 kHz.
func DefaultConfig() Config {
	return Config{
		Threshold:            0.5,
		SpeechPadMs:          300,
		MinSilenceDurationMs: 100,
		SampleRate:           16000,
	}
}

// offsetMargin sets the lower bar used once triggered (Threshold minus
// offsetMargin, see offsetThreshold). It is a constant rather than a
// Config field so callers cannot configure away the hysteresis margin
// the algorithm depends on.
const offsetMargin = 0.15

func (c Config) offsetThreshold() float64 {
	t := c.Threshold - offsetMargin
	if t < 0 {
		return 0
	}
	return t
}

func (c Config) padSamples() int64 {
	return int64(c.SpeechPadMs) * int64(c.SampleRate) / 1000
}

func (c Config) minSilenceSamples() int64 {
	return int64(c.MinSilenceDurationMs) * int64(c.SampleRate) / 1000
}
