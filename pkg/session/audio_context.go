package session

import "time"

// AudioContextInterface defines the operations the engine needs from the
// platform audio layer. This allows for both real (oto-based) and mock
// implementations.
type AudioContextInterface interface {
	// NewPlayer creates a player for one PCM clip. The data must already be
	// mono 16-bit little-endian at the context's sample rate.
	NewPlayer(pcm []byte) (AudioPlayerInterface, error)

	// NewLoopingPlayer creates a player that repeats the PCM clip forever.
	// Used for the keepalive stream.
	NewLoopingPlayer(pcm []byte) (AudioPlayerInterface, error)

	// Suspend suspends the audio context.
	Suspend() error

	// Resume resumes a suspended audio context.
	Resume() error

	// Close closes the audio context and releases resources.
	Close() error

	// IsReady returns whether the context is ready for use.
	IsReady() bool

	// SampleRate returns the sample rate of the audio context.
	SampleRate() int

	// ChannelCount returns the number of channels.
	ChannelCount() int
}

// AudioPlayerInterface defines the interface for audio players.
type AudioPlayerInterface interface {
	// Play starts or resumes playback.
	Play()

	// Pause pauses playback.
	Pause()

	// IsPlaying returns whether audio is currently playing.
	IsPlaying() bool

	// Position returns the current playback offset. Looping players report
	// zero; callers must treat that as an invalid reading.
	Position() time.Duration

	// SetVolume sets the playback volume (0.0 to 1.0).
	SetVolume(volume float64)

	// Volume returns the current volume.
	Volume() float64

	// Close closes the player and releases resources.
	Close() error
}

// AudioContextType represents the type of audio context to create.
type AudioContextType int

const (
	// AudioContextProduction uses real audio hardware via oto.
	AudioContextProduction AudioContextType = iota
	// AudioContextMock uses a mock implementation for testing.
	AudioContextMock
	// AudioContextAuto automatically detects the appropriate type.
	AudioContextAuto
)
