package segment

import "errors"

// ErrIllFormedSequence is the value OnStart/OnEnd panic with when driven
// out of sequence: on_start while already collecting, or on_end while
// idle. Per spec this indicates the vad.Iterator driving the Collector
// produced an ill-formed event sequence, which is fatal, not recoverable
// at this layer.
var ErrIllFormedSequence = errors.New("segment: ill-formed start/end sequence")

// Collector turns a stream of per-frame samples plus vad start/end
// events into complete Segments, including the leading pad window a
// vad.Config asks for even though that audio arrived before the frame
// that actually crossed the onset threshold.
//
// Callers drive it in lockstep with a vad.Iterator: call Observe with
// every frame's samples, then call OnStart or OnEnd depending on what
// the iterator reported for that same frame. It is touched by a single
// goroutine and carries no locking of its own.
type Collector struct {
	padSamples int

	collecting bool
	lookback   []float32 // bounded ring of pre-trigger samples, capped at padSamples
	seg        Segment
}

// NewCollector returns an idle Collector that keeps up to padMs of
// lookback audio at sampleRate.
func NewCollector(padMs, sampleRate int) *Collector {
	return &Collector{
		padSamples: padMs * sampleRate / 1000,
	}
}

// Observe feeds one frame's samples into the collector. It must be
// called exactly once per frame, before any OnStart/OnEnd call for that
// same frame.
func (c *Collector) Observe(samples []float32) {
	if c.collecting {
		c.seg.Samples = append(c.seg.Samples, samples...)
		return
	}

	if c.padSamples == 0 {
		return
	}

	c.lookback = append(c.lookback, samples...)
	if over := len(c.lookback) - c.padSamples; over > 0 {
		copy(c.lookback, c.lookback[over:])
		c.lookback = c.lookback[:len(c.lookback)-over]
	}
}

// OnStart begins a new segment, seeding it with whatever lookback audio
// is currently buffered (the pad window, including the triggering
// frame's own samples). It panics with ErrIllFormedSequence if a segment
// is already in progress.
func (c *Collector) OnStart(startTimestampMs int64) {
	if c.collecting {
		panic(ErrIllFormedSequence)
	}
	c.collecting = true
	c.seg = Segment{
		Samples:          append([]float32(nil), c.lookback...),
		StartTimestampMs: startTimestampMs,
	}
	c.lookback = c.lookback[:0]
}

// OnEnd closes the in-progress segment and returns it. It panics with
// ErrIllFormedSequence if no segment is in progress.
func (c *Collector) OnEnd(endTimestampMs int64) Segment {
	if !c.collecting {
		panic(ErrIllFormedSequence)
	}
	c.seg.EndTimestampMs = endTimestampMs
	out := c.seg
	c.seg = Segment{}
	c.collecting = false
	return out
}

// IsCollecting reports whether a segment is currently in progress.
func (c *Collector) IsCollecting() bool { return c.collecting }

// Abort discards any in-progress segment without emitting it and
// returns the Collector to idle. cascade.Machine does not call it: its
// entry guard rejects an onset before OnStart is reached.
func (c *Collector) Abort() {
	c.seg = Segment{}
	c.collecting = false
}
