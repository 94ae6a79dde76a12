package session

import (
	"fmt"
	"sync"
)

// MockFocusSession implements FocusSession for testing. It records every
// call as a transition tag so tests can assert the exact protocol order.
type MockFocusSession struct {
	mu sync.Mutex

	// Transitions records calls in order, e.g. "configure:voice-prompt",
	// "activate", "deactivate:notify".
	Transitions []string

	// External simulates another app playing audio.
	External bool

	// Error injection
	ConfigureErr  error
	ActivateErr   error
	DeactivateErr error

	// Current state
	Active   bool
	Category Category
	Options  CategoryOptions
}

// NewMockFocusSession creates a mock focus session.
func NewMockFocusSession() *MockFocusSession {
	return &MockFocusSession{}
}

func (m *MockFocusSession) Configure(category Category, opts CategoryOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, fmt.Sprintf("configure:%s", category))
	if m.ConfigureErr != nil {
		return m.ConfigureErr
	}
	m.Category = category
	m.Options = opts
	return nil
}

func (m *MockFocusSession) Activate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, "activate")
	if m.ActivateErr != nil {
		return m.ActivateErr
	}
	m.Active = true
	return nil
}

func (m *MockFocusSession) Deactivate(notifyOthers bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tag := "deactivate"
	if notifyOthers {
		tag = "deactivate:notify"
	}
	m.Transitions = append(m.Transitions, tag)
	if m.DeactivateErr != nil {
		return m.DeactivateErr
	}
	m.Active = false
	return nil
}

func (m *MockFocusSession) ExternalAudioPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.External
}

// SetExternal flips the simulated external-audio signal.
func (m *MockFocusSession) SetExternal(playing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.External = playing
}

// Recorded returns a copy of the transition tags.
func (m *MockFocusSession) Recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Transitions))
	copy(out, m.Transitions)
	return out
}
