package session

import "testing"

func TestStateMachineValidSequence(t *testing.T) {
	sm := newSessionStateMachine()

	steps := []SessionState{
		StateConfigured,
		StateActive,
		StateDucking,
		StateRestoringFull,
		StateActive,
		StateRestoringBackgroundSafe,
		StateActive,
		StateConfigured,
	}
	for _, to := range steps {
		if !sm.transition(to) {
			t.Fatalf("transition to %s refused from %s", to, sm.current)
		}
	}
	if sm.current != StateConfigured {
		t.Errorf("expected final state configured, got %s", sm.current)
	}
}

func TestStateMachineRefusesInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from SessionState
		to   SessionState
	}{
		{"unconfigured to active", StateUnconfigured, StateActive},
		{"unconfigured to ducking", StateUnconfigured, StateDucking},
		{"configured to ducking", StateConfigured, StateDucking},
		{"ducking to active", StateDucking, StateActive},
		{"ducking to configured", StateDucking, StateConfigured},
		{"restoring full to ducking", StateRestoringFull, StateDucking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newSessionStateMachine()
			sm.current = tt.from
			if sm.transition(tt.to) {
				t.Errorf("transition %s -> %s should be refused", tt.from, tt.to)
			}
			if sm.current != tt.from {
				t.Errorf("refused transition mutated state to %s", sm.current)
			}
		})
	}
}

func TestStateMachineAllowsActiveSelfLoop(t *testing.T) {
	sm := newSessionStateMachine()
	sm.current = StateActive
	if !sm.transition(StateActive) {
		t.Error("active self-transition should be allowed")
	}
}

func TestSessionStateString(t *testing.T) {
	if got := StateDucking.String(); got != "ducking" {
		t.Errorf("expected %q, got %q", "ducking", got)
	}
	if got := SessionState(99).String(); got != "unknown" {
		t.Errorf("expected %q, got %q", "unknown", got)
	}
}
