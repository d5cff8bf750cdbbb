// Package cascade wires the vad, segment, and interruptions packages
// into the single per-connection state machine a stream.Processor
// drives one frame at a time.
package cascade

import (
	"github.com/koscakluka/cascade/core/frame"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/segment"
)

// ResultKind identifies which variant of the tagged union a Result
// carries. At most one is produced per processed frame: none at all when
// a speech onset is accepted without being reported as an interruption,
// or when the frame falls inside a segment that is still being collected.
type ResultKind int

const (
	// ResultFrame means no speech-related event happened on this frame:
	// either the frame is ordinary silence, or a speech onset was
	// detected but rejected by the interruption guard. Frame() is valid.
	ResultFrame ResultKind = iota
	// ResultSegment carries a completed speech span. Segment() is valid.
	ResultSegment
	// ResultInterruption means an onset was accepted while the dialogue
	// claimed to be busy. Interruption() is valid.
	ResultInterruption
)

func (k ResultKind) String() string {
	switch k {
	case ResultSegment:
		return "segment"
	case ResultInterruption:
		return "interruption"
	default:
		return "frame"
	}
}

// Result is one event a Machine produced while processing a frame. Its
// Frame, Segment, and Interruption accessors panic if called when
// Kind() does not carry that payload, the same way llms.Message's typed
// accessors in the teacher's codebase assume the caller already checked
// the kind.
type Result struct {
	kind         ResultKind
	timestampMs  int64
	frame        frame.Frame
	segment      segment.Segment
	interruption interruptions.InterruptionEvent
}

// Kind reports which variant of the tagged union this result is.
func (r Result) Kind() ResultKind { return r.kind }

// TimestampMs is the stream-relative timestamp, in milliseconds, this
// result occurred at.
func (r Result) TimestampMs() int64 { return r.timestampMs }

// Frame returns the no-speech frame this result carries. It panics
// unless Kind() == ResultFrame.
func (r Result) Frame() frame.Frame {
	if r.kind != ResultFrame {
		panic("cascade: Frame called on a Result that is not ResultFrame")
	}
	return r.frame
}

// Segment returns the completed segment. It panics unless
// Kind() == ResultSegment.
func (r Result) Segment() segment.Segment {
	if r.kind != ResultSegment {
		panic("cascade: Segment called on a Result that is not ResultSegment")
	}
	return r.segment
}

// Interruption returns the interruption event. It panics unless
// Kind() == ResultInterruption.
func (r Result) Interruption() interruptions.InterruptionEvent {
	if r.kind != ResultInterruption {
		panic("cascade: Interruption called on a Result that is not ResultInterruption")
	}
	return r.interruption
}

func newFrameResult(f frame.Frame, ts int64) Result {
	return Result{kind: ResultFrame, timestampMs: ts, frame: f}
}

func newSegmentResult(seg segment.Segment) Result {
	return Result{kind: ResultSegment, timestampMs: seg.EndTimestampMs, segment: seg}
}

func newInterruptionResult(ev interruptions.InterruptionEvent) Result {
	return Result{kind: ResultInterruption, timestampMs: ev.TimestampMs, interruption: ev}
}
