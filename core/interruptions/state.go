package interruptions

// State is the dialogue-layer state a Manager owns on behalf of its
// cascade.Machine. Only a Manager ever mutates it: external callers
// request transitions through RequestState, and Manager may refuse.
type State int

const (
	// StateIdle means neither side claims to be busy.
	StateIdle State = iota
	// StateCollecting means a speech onset was accepted and a segment is
	// being assembled. It is entered only by a Manager accepting or
	// interrupting an onset, and left only once the matching offset
	// arrives.
	StateCollecting
	// StateProcessing means the caller's dialogue layer is working on a
	// response to the last completed segment.
	StateProcessing
	// StateResponding means the caller's dialogue layer is producing
	// output (e.g. TTS audio) for the user.
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateProcessing:
		return "processing"
	case StateResponding:
		return "responding"
	default:
		return "idle"
	}
}
