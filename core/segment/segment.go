// Package segment assembles the raw audio samples between a VAD start
// and end event into a Segment, independent of however many frames the
// iterator happened to process in between.
package segment

// Segment is one contiguous span of speech audio, inclusive of whatever
// leading pad the vad.Config applied to its start timestamp.
type Segment struct {
	Samples          []float32
	StartTimestampMs int64
	EndTimestampMs   int64
}

// DurationMs reports the segment's length in milliseconds.
func (s Segment) DurationMs() int64 {
	return s.EndTimestampMs - s.StartTimestampMs
}
