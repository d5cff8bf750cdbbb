package vad

// Event describes a transition the Iterator detected on a given frame.
type Event int

const (
	// EventNone means the frame caused no state transition.
	EventNone Event = iota
	// EventStart means a speech segment was just triggered.
	EventStart
	// EventEnd means a speech segment just closed after MinSilenceDurationMs
	// of sub-threshold probability.
	EventEnd
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	default:
		return "none"
	}
}

// Iterator is a single-stream hysteresis state machine, one per
// cascade.Machine. It has no concurrency guarantees of its own; callers
// must serialize calls the same way they serialize frames.
type Iterator struct {
	cfg Config

	triggered     bool
	currentSample int64
	tempEnd       int64 // 0 means "no pending offset"

	// lastTriggerTimestampMs remembers the timestamp reported by the
	// most recent EventStart. RollbackTrigger leaves it unchanged.
	lastTriggerTimestampMs int64
}

// NewIterator returns an Iterator at sample position 0, untriggered.
func NewIterator(cfg Config) *Iterator {
	return &Iterator{cfg: cfg}
}

// Process advances the iterator by one frame of frameSamples samples at
// the given speech probability, returning any state transition and the
// timestamp, in milliseconds, that transition should be reported at.
func (it *Iterator) Process(probability float64, frameSamples int64) (Event, int64) {
	it.currentSample += frameSamples

	if !it.triggered {
		if probability >= it.cfg.Threshold {
			it.triggered = true
			it.tempEnd = 0

			startSample := it.currentSample - it.cfg.padSamples()
			if startSample < 0 {
				startSample = 0
			}
			it.lastTriggerTimestampMs = it.samplesToMs(startSample)
			return EventStart, it.lastTriggerTimestampMs
		}
		return EventNone, 0
	}

	if probability < it.cfg.offsetThreshold() {
		if it.tempEnd == 0 {
			it.tempEnd = it.currentSample
		}
		if it.currentSample-it.tempEnd >= it.cfg.minSilenceSamples() {
			endSample := it.tempEnd + it.cfg.padSamples()
			it.triggered = false
			it.tempEnd = 0
			return EventEnd, it.samplesToMs(endSample)
		}
		return EventNone, 0
	}

	// Probability recovered above the offset bar before MinSilenceDurationMs
	// elapsed: cancel the pending offset.
	it.tempEnd = 0
	return EventNone, 0
}

// RollbackTrigger undoes the most recent EventStart, returning the
// iterator to the untriggered state it was in before that frame. It is
// used when an entry guard rejects a speech onset the hysteresis machine
// already committed to, so the next genuine onset can re-trigger from
// scratch.
func (it *Iterator) RollbackTrigger() {
	it.triggered = false
	it.tempEnd = 0
}

// CurrentSample reports the total number of samples processed so far.
func (it *Iterator) CurrentSample() int64 { return it.currentSample }

// Config returns the configuration the iterator was constructed with.
func (it *Iterator) Config() Config { return it.cfg }

// Triggered reports whether the iterator currently considers itself
// inside a speech segment.
func (it *Iterator) Triggered() bool { return it.triggered }

func (it *Iterator) samplesToMs(samples int64) int64 {
	return samples * 1000 / int64(it.cfg.SampleRate)
}
