package interruptions

import "sync"

// Manager holds one dialogue's SystemState and decides whether a
// detected speech onset is allowed to move it into StateCollecting, and
// whether an external caller is allowed to move it between
// StateIdle/StateProcessing/StateResponding. It is safe for concurrent
// use, though in practice a cascade.Machine drives OnSpeechOnset/
// OnSpeechOffset from a single goroutine while a separate dialogue-layer
// caller drives RequestState.
type Manager struct {
	mu sync.Mutex

	cfg Config

	state State

	hasOnset      bool
	lastOnsetTsMs int64
}

// NewManager returns an idle Manager.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, state: StateIdle}
}

// OnSpeechOnset evaluates a detected speech onset at tsMs and, if
// accepted, switches the dialogue into StateCollecting. This is the
// entry guard: it is the only way StateCollecting is ever entered.
func (m *Manager) OnSpeechOnset(tsMs int64) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled {
		if m.state == StateCollecting {
			return Decision{Kind: DecisionReject}
		}
		m.state = StateCollecting
		return Decision{Kind: DecisionAccept}
	}

	if m.hasOnset && tsMs-m.lastOnsetTsMs < m.cfg.MinIntervalMs {
		return Decision{Kind: DecisionReject}
	}
	m.lastOnsetTsMs = tsMs
	m.hasOnset = true

	switch m.state {
	case StateProcessing, StateResponding:
		prior := m.state
		m.state = StateCollecting
		return Decision{Kind: DecisionInterrupt, PriorState: prior}
	case StateIdle:
		m.state = StateCollecting
		return Decision{Kind: DecisionAccept}
	default:
		// StateCollecting: a second onset before the matching offset.
		// Should not occur; defensive only.
		return Decision{Kind: DecisionReject}
	}
}

// OnSpeechOffset records the end of the speech segment StateCollecting
// was tracking, returning the dialogue to StateIdle. It is called by a
// cascade.Machine on every accepted end event, never by an external
// caller.
func (m *Manager) OnSpeechOffset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
}

// RequestState is the switch guard: it lets an external dialogue-layer
// caller move between StateIdle, StateProcessing, and StateResponding.
// It refuses outright while StateCollecting, and refuses any edge other
// than IDLE->PROCESSING, PROCESSING->RESPONDING, or *->IDLE. StateCollecting
// itself is never a valid target, since no edge above names it.
func (m *Manager) RequestState(newState State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateCollecting {
		return false
	}

	switch {
	case m.state == StateIdle && newState == StateProcessing:
	case m.state == StateProcessing && newState == StateResponding:
	case newState == StateIdle:
	default:
		return false
	}

	m.state = newState
	return true
}

// GetState returns the current dialogue state.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
