package session

import "github.com/charmbracelet/log"

// SessionState represents the audio-focus state of the process-wide session.
//
// The transition protocol around ducking is load-bearing: an out-of-order
// transition can silently break other apps' audio for the user, which is why
// every transition funnels through the machine and violations are logged.
type SessionState int

const (
	// StateUnconfigured is the initial state before the output category is
	// established.
	StateUnconfigured SessionState = iota
	// StateConfigured means the mixing baseline category is set but the
	// session is not live.
	StateConfigured
	// StateActive means the session is live under the mixing baseline.
	StateActive
	// StateDucking means other audio is ducked for a narration clip.
	StateDucking
	// StateRestoringBackgroundSafe means ducking options are being removed
	// without deactivating the session (keepalive survives).
	StateRestoringBackgroundSafe
	// StateRestoringFull means the session is deactivated and waiting for
	// external audio to resume before re-activating.
	StateRestoringFull
)

func (s SessionState) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	case StateDucking:
		return "ducking"
	case StateRestoringBackgroundSafe:
		return "restoring-background-safe"
	case StateRestoringFull:
		return "restoring-full"
	default:
		return "unknown"
	}
}

// stateMachine guards session-state transitions against the valid set.
type stateMachine struct {
	current     SessionState
	transitions map[SessionState][]SessionState
}

func newSessionStateMachine() *stateMachine {
	return &stateMachine{
		current: StateUnconfigured,
		transitions: map[SessionState][]SessionState{
			StateUnconfigured: {StateConfigured},
			StateConfigured:   {StateActive},
			StateActive: {
				StateActive,
				StateDucking,
				StateRestoringBackgroundSafe,
				StateRestoringFull,
				StateConfigured,
			},
			StateDucking: {
				StateRestoringBackgroundSafe,
				StateRestoringFull,
			},
			StateRestoringBackgroundSafe: {StateActive},
			StateRestoringFull:           {StateActive},
		},
	}
}

// transition moves to the target state if the move is valid. An invalid move
// is logged and refused; callers proceed best-effort either way.
func (sm *stateMachine) transition(to SessionState) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			sm.current = to
			return true
		}
	}
	log.Error("invalid session state transition",
		"from", sm.current,
		"to", to)
	return false
}
