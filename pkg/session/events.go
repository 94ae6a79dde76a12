package session

import "time"

// InterruptionType classifies platform audio interruptions (an incoming
// call, another app seizing exclusive output, and so on).
type InterruptionType int

const (
	// InterruptionBegan indicates an interruption has started.
	InterruptionBegan InterruptionType = iota
	// InterruptionEnded indicates an interruption has ended.
	InterruptionEnded
)

func (t InterruptionType) String() string {
	switch t {
	case InterruptionBegan:
		return "began"
	case InterruptionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// InterruptionEvent is delivered to registered handlers when the platform
// interrupts the audio session.
type InterruptionEvent struct {
	Type InterruptionType
	// ShouldResume hints that the session may re-activate now that the
	// interruption is over. Only meaningful with InterruptionEnded.
	ShouldResume bool
	Timestamp    time.Time
}

// DuckEvent is a free-text tag emitted at each focus-state transition.
// Consumed by diagnostics only; tags are stable but not an API.
type DuckEvent struct {
	Tag       string
	Timestamp time.Time
}
