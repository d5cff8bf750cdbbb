package interruptions

import "testing"

func TestOnsetAcceptedWhileIdle(t *testing.T) {
	m := NewManager(DefaultConfig())
	d := m.OnSpeechOnset(0)
	if d.Kind != DecisionAccept {
		t.Fatalf("expected onset while idle to be accepted, got %v", d.Kind)
	}
	if m.GetState() != StateCollecting {
		t.Fatalf("expected state collecting, got %v", m.GetState())
	}
}

func TestInterruptionWhileResponding(t *testing.T) {
	// S4: caller sets state to RESPONDING, then feeds a speech onset.
	cfg := DefaultConfig()
	m := NewManager(cfg)

	if !m.RequestState(StateProcessing) {
		t.Fatalf("expected idle -> processing to succeed")
	}
	if !m.RequestState(StateResponding) {
		t.Fatalf("expected processing -> responding to succeed")
	}

	d := m.OnSpeechOnset(1000)
	if d.Kind != DecisionInterrupt {
		t.Fatalf("expected the onset to be reported as an interruption, got %v", d.Kind)
	}
	if d.PriorState != StateResponding {
		t.Fatalf("expected the interrupted state to be responding, got %v", d.PriorState)
	}
	if m.GetState() != StateCollecting {
		t.Fatalf("expected state collecting after the interruption, got %v", m.GetState())
	}

	m.OnSpeechOffset()
	if m.GetState() != StateIdle {
		t.Fatalf("expected state idle after the offset, got %v", m.GetState())
	}
}

func TestExternalStateTheftWhileCollecting(t *testing.T) {
	// S5: while state is COLLECTING, request_state must return false and
	// leave the state unchanged.
	m := NewManager(DefaultConfig())
	m.OnSpeechOnset(0)

	if m.RequestState(StateProcessing) {
		t.Fatalf("expected request_state to be refused while collecting")
	}
	if m.GetState() != StateCollecting {
		t.Fatalf("expected state to remain collecting, got %v", m.GetState())
	}
}

func TestRapidDoubleOnsetUnderMinInterval(t *testing.T) {
	// S6: two onsets at 0ms and 200ms under min_interval_ms=500; only the
	// first is accepted.
	cfg := DefaultConfig()
	cfg.MinIntervalMs = 500
	m := NewManager(cfg)

	first := m.OnSpeechOnset(0)
	if first.Kind != DecisionAccept {
		t.Fatalf("expected the first onset to be accepted, got %v", first.Kind)
	}
	m.OnSpeechOffset()

	second := m.OnSpeechOnset(200)
	if second.Kind != DecisionReject {
		t.Fatalf("expected the second onset to be rejected, got %v", second.Kind)
	}
	if m.GetState() != StateIdle {
		t.Fatalf("expected the rejected onset to leave state unchanged, got %v", m.GetState())
	}
}

func TestRequestStateInvalidEdgeIsRejected(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m.RequestState(StateResponding) {
		t.Fatalf("expected idle -> responding to be rejected (not an allowed edge)")
	}
	if m.GetState() != StateIdle {
		t.Fatalf("expected state to remain idle, got %v", m.GetState())
	}
}

func TestRequestStateCollectingIsNeverAValidTarget(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m.RequestState(StateCollecting) {
		t.Fatalf("expected StateCollecting to never be settable externally")
	}
}

func TestRequestStateAnyStateToIdle(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.RequestState(StateProcessing)
	m.RequestState(StateResponding)
	if !m.RequestState(StateIdle) {
		t.Fatalf("expected responding -> idle to succeed")
	}
	if m.GetState() != StateIdle {
		t.Fatalf("expected state idle, got %v", m.GetState())
	}
}

func TestOnsetWhenDisabledIsAlwaysAcceptNotInterrupt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	m := NewManager(cfg)
	m.RequestState(StateProcessing)
	m.RequestState(StateResponding)

	d := m.OnSpeechOnset(0)
	if d.Kind != DecisionAccept {
		t.Fatalf("expected a disabled policy to always accept, got %v", d.Kind)
	}
}

func TestOnsetWhenDisabledStillGuardsDoubleStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	m := NewManager(cfg)
	m.OnSpeechOnset(0)

	d := m.OnSpeechOnset(10)
	if d.Kind != DecisionReject {
		t.Fatalf("expected the double-start guard to still apply when disabled, got %v", d.Kind)
	}
}
