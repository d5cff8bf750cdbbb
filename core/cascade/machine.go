package cascade

import (
	"errors"
	"fmt"

	"github.com/koscakluka/cascade/core/frame"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/segment"
	"github.com/koscakluka/cascade/core/vad"
)

// ErrStateViolation is returned when a Machine is driven out of the
// order its lifecycle requires, such as calling ProcessFrame after
// Finalize.
var ErrStateViolation = errors.New("cascade: state violation")

// Machine is the per-connection VAD and interruption state machine.
// One Machine belongs to exactly one stream.Processor; it is not safe
// for concurrent use, matching the 1:1:1:1 connection isolation the
// rest of the engine assumes.
type Machine struct {
	vadIt     *vad.Iterator
	collector *segment.Collector
	guard     *interruptions.Manager

	finalized bool
}

// NewMachine returns a Machine in the idle state.
func NewMachine(vadCfg vad.Config, interruptCfg interruptions.Config) *Machine {
	return &Machine{
		vadIt:     vad.NewIterator(vadCfg),
		collector: segment.NewCollector(vadCfg.SpeechPadMs, vadCfg.SampleRate),
		guard:     interruptions.NewManager(interruptCfg),
	}
}

// ProcessFrame advances the machine by one frame and its model
// probability, returning zero or one Result produced by that frame.
func (m *Machine) ProcessFrame(f frame.Frame, probability float64) (results []Result, err error) {
	if m.finalized {
		return nil, fmt.Errorf("%w: ProcessFrame called after Finalize", ErrStateViolation)
	}
	defer func() { err = recoverIllFormedSequence(recover()) }()
	return m.step(f, probability), nil
}

// recoverIllFormedSequence converts a segment.ErrIllFormedSequence panic
// into an ErrStateViolation, and re-panics on anything else. r is the
// value recover() returned; nil means nothing panicked.
func recoverIllFormedSequence(r any) error {
	if r == nil {
		return nil
	}
	if e, ok := r.(error); ok && errors.Is(e, segment.ErrIllFormedSequence) {
		return fmt.Errorf("%w: %v", ErrStateViolation, e)
	}
	panic(r)
}

func (m *Machine) step(f frame.Frame, probability float64) []Result {
	m.collector.Observe(f.Samples[:])

	ev, ts := m.vadIt.Process(probability, frame.FrameSamples)

	switch ev {
	case vad.EventStart:
		decision := m.guard.OnSpeechOnset(ts)
		switch decision.Kind {
		case interruptions.DecisionReject:
			// The entry guard: discard the onset, roll back B's
			// triggered flag, and let this frame fall through as an
			// ordinary no-speech frame.
			m.vadIt.RollbackTrigger()
			return []Result{newFrameResult(f, f.StartTimestampMs)}

		case interruptions.DecisionInterrupt:
			m.collector.OnStart(ts)
			return []Result{newInterruptionResult(interruptions.InterruptionEvent{
				TimestampMs:      ts,
				InterruptedState: decision.PriorState,
				Confidence:       probability,
			})}

		default: // DecisionAccept
			m.collector.OnStart(ts)
			return nil
		}

	case vad.EventEnd:
		seg := m.collector.OnEnd(ts)
		m.guard.OnSpeechOffset()
		return []Result{newSegmentResult(seg)}

	default:
		if m.collector.IsCollecting() {
			return nil
		}
		return []Result{newFrameResult(f, f.StartTimestampMs)}
	}
}

// SetSystemState delegates to the interruption guard's switch guard,
// letting a caller outside the audio pipeline (the dialogue layer
// driving ASR/LLM/TTS) move the dialogue between StateIdle,
// StateProcessing, and StateResponding. It returns false if the
// transition is refused, including any attempt while StateCollecting.
func (m *Machine) SetSystemState(state interruptions.State) bool {
	return m.guard.RequestState(state)
}

// SystemState returns the dialogue state the interruption guard
// currently holds.
func (m *Machine) SystemState() interruptions.State {
	return m.guard.GetState()
}

// Finalized reports whether Finalize has already been called.
func (m *Machine) Finalized() bool {
	return m.finalized
}

// Finalize closes out any in-progress segment at the machine's current
// position and marks the machine done; subsequent ProcessFrame calls
// return ErrStateViolation. Calling Finalize more than once also
// returns ErrStateViolation.
func (m *Machine) Finalize() (results []Result, err error) {
	if m.finalized {
		return nil, fmt.Errorf("%w: Finalize called more than once", ErrStateViolation)
	}
	m.finalized = true

	if !m.collector.IsCollecting() {
		return nil, nil
	}

	defer func() { err = recoverIllFormedSequence(recover()) }()

	cfg := m.vadIt.Config()
	endTs := m.vadIt.CurrentSample() * 1000 / int64(cfg.SampleRate)
	seg := m.collector.OnEnd(endTs)
	m.guard.OnSpeechOffset()
	return []Result{newSegmentResult(seg)}, nil
}
