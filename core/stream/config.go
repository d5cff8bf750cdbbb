// Package stream owns the per-connection Processor: the thing that
// actually sits between a socket or file reader and a cascade.Machine,
// turning raw PCM bytes into frames, frames into model probabilities,
// and probabilities into cascade.Results.
package stream

import (
	"github.com/koscakluka/cascade/core/audio"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/vad"
)

// inferenceQueueDepth bounds how many frames may be in flight to the
// inference worker at once. It is the capacity of both the
// inputFrames and inferResults channels.
const inferenceQueueDepth = 8

// Config configures one Processor.
type Config struct {
	Format audio.Format
	VAD    vad.Config
	Interruptions interruptions.Config
}

// DefaultConfig returns 16kHz PCM s16le input with default VAD and
// interruption guard thresholds.
func DefaultConfig() Config {
	return Config{
		Format:        audio.FormatPCMS16LE,
		VAD:           vad.DefaultConfig(),
		Interruptions: interruptions.DefaultConfig(),
	}
}
