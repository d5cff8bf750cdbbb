package interruptions

// DecisionKind classifies what a Manager did with a speech onset.
type DecisionKind int

const (
	// DecisionAccept means the onset was accepted while the dialogue was
	// idle (or, with Config.Enabled false, in any state other than
	// StateCollecting); the state switched to StateCollecting and nothing
	// else happened yet.
	DecisionAccept DecisionKind = iota
	// DecisionReject means the onset was refused: either it arrived
	// within Config.MinIntervalMs of the previous one, or it arrived
	// while already StateCollecting (a double-start, defensive case that
	// should not occur in practice).
	DecisionReject
	// DecisionInterrupt means the onset arrived while the dialogue was
	// StateProcessing or StateResponding and was accepted as a genuine
	// interruption; PriorState carries what was interrupted.
	DecisionInterrupt
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionReject:
		return "reject"
	case DecisionInterrupt:
		return "interrupt"
	default:
		return "accept"
	}
}

// Decision is the outcome of a Manager evaluating a speech onset.
type Decision struct {
	Kind DecisionKind
	// PriorState is the state that was interrupted. It is only
	// meaningful when Kind == DecisionInterrupt.
	PriorState State
}

// Accepted reports whether the onset was allowed to move the dialogue
// into StateCollecting, whether as a plain accept or an interruption.
func (d Decision) Accepted() bool {
	return d.Kind == DecisionAccept || d.Kind == DecisionInterrupt
}

// InterruptionEvent is the payload carried by a cascade.Result whose
// Kind is ResultInterruption: the dialogue state that a speech onset
// cut off, and the model probability that triggered it.
type InterruptionEvent struct {
	TimestampMs      int64
	InterruptedState State
	Confidence       float64
}
