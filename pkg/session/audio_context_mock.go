package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// MockAudioContext implements AudioContextInterface for testing without real
// audio hardware. Players track wall-clock time against the duration implied
// by their PCM data, so short clips "finish" on a realistic schedule.
type MockAudioContext struct {
	mu         sync.Mutex
	ready      bool
	suspended  bool
	players    []*MockAudioPlayer
	sampleRate int
	channels   int

	// Test helpers
	PlayersCreated int
	PlayersClosed  int
	SuspendCount   int
	ResumeCount    int
}

// NewMockAudioContext creates a new mock audio context.
func NewMockAudioContext() (*MockAudioContext, error) {
	log.Debug("creating mock audio context")
	return &MockAudioContext{
		ready:      true,
		sampleRate: SampleRate,
		channels:   Channels,
	}, nil
}

// NewPlayer creates a new mock audio player.
func (mac *MockAudioContext) NewPlayer(pcm []byte) (AudioPlayerInterface, error) {
	return mac.newPlayer(pcm, false)
}

// NewLoopingPlayer creates a mock player that never finishes on its own.
func (mac *MockAudioContext) NewLoopingPlayer(pcm []byte) (AudioPlayerInterface, error) {
	return mac.newPlayer(pcm, true)
}

func (mac *MockAudioContext) newPlayer(pcm []byte, looping bool) (AudioPlayerInterface, error) {
	mac.mu.Lock()
	defer mac.mu.Unlock()

	if !mac.ready {
		return nil, fmt.Errorf("mock audio context not ready")
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: empty PCM data", ErrInvalidWAV)
	}

	samples := len(pcm) / BytesPerSample
	duration := time.Duration(samples) * time.Second / time.Duration(mac.sampleRate)

	player := &MockAudioPlayer{
		context:  mac,
		duration: duration,
		looping:  looping,
		volume:   1.0,
		dataSize: len(pcm),
	}
	mac.players = append(mac.players, player)
	mac.PlayersCreated++

	log.Debug("created mock audio player",
		"data_size", len(pcm),
		"duration", duration,
		"looping", looping)
	return player, nil
}

// Suspend records a context suspension.
func (mac *MockAudioContext) Suspend() error {
	mac.mu.Lock()
	defer mac.mu.Unlock()
	mac.suspended = true
	mac.SuspendCount++
	return nil
}

// Resume records a context resumption.
func (mac *MockAudioContext) Resume() error {
	mac.mu.Lock()
	defer mac.mu.Unlock()
	mac.suspended = false
	mac.ResumeCount++
	return nil
}

// Suspended reports whether the context is currently suspended.
func (mac *MockAudioContext) Suspended() bool {
	mac.mu.Lock()
	defer mac.mu.Unlock()
	return mac.suspended
}

// Close closes the mock audio context and all its players.
func (mac *MockAudioContext) Close() error {
	mac.mu.Lock()
	players := mac.players
	mac.ready = false
	mac.players = nil
	mac.mu.Unlock()

	for _, player := range players {
		_ = player.Close()
	}
	return nil
}

// IsReady returns whether the context is ready.
func (mac *MockAudioContext) IsReady() bool {
	mac.mu.Lock()
	defer mac.mu.Unlock()
	return mac.ready
}

// SampleRate returns the sample rate.
func (mac *MockAudioContext) SampleRate() int { return mac.sampleRate }

// ChannelCount returns the number of channels.
func (mac *MockAudioContext) ChannelCount() int { return mac.channels }

// MockAudioPlayer implements AudioPlayerInterface for testing.
type MockAudioPlayer struct {
	context  *MockAudioContext
	duration time.Duration
	looping  bool
	dataSize int

	mu         sync.Mutex
	started    bool
	paused     bool
	startTime  time.Time
	pausedAt   time.Time
	totalPause time.Duration
	volume     float64
	closed     atomic.Bool

	// Test helpers
	PlayCount  int
	PauseCount int
}

// Play starts or resumes playback.
func (m *MockAudioPlayer) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() {
		return
	}
	if !m.started {
		m.started = true
		m.startTime = time.Now()
		m.PlayCount++
		return
	}
	if m.paused {
		m.paused = false
		m.totalPause += time.Since(m.pausedAt)
		m.PlayCount++
	}
}

// Pause pauses playback.
func (m *MockAudioPlayer) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() || !m.started || m.paused {
		return
	}
	m.paused = true
	m.pausedAt = time.Now()
	m.PauseCount++
}

// IsPlaying returns whether the simulated clip is still running.
func (m *MockAudioPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() || !m.started || m.paused {
		return false
	}
	if m.looping {
		return true
	}
	return m.elapsedLocked() < m.duration
}

// Position returns the simulated playback offset.
func (m *MockAudioPlayer) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.looping || !m.started {
		return 0
	}
	elapsed := m.elapsedLocked()
	if elapsed > m.duration {
		return m.duration
	}
	return elapsed
}

func (m *MockAudioPlayer) elapsedLocked() time.Duration {
	elapsed := time.Since(m.startTime) - m.totalPause
	if m.paused {
		elapsed = m.pausedAt.Sub(m.startTime) - m.totalPause
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// SetVolume sets the playback volume.
func (m *MockAudioPlayer) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
}

// Volume returns the current volume.
func (m *MockAudioPlayer) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Close closes the player.
func (m *MockAudioPlayer) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		m.context.mu.Lock()
		m.context.PlayersClosed++
		m.context.mu.Unlock()
	}
	return nil
}

// DataSize returns the size of the PCM data (for testing).
func (m *MockAudioPlayer) DataSize() int { return m.dataSize }
