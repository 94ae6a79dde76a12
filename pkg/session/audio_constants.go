package session

// Audio format constants for narration playback.
// Silence spacers may carry a lower rate on disk; everything is adapted to
// the output context's rate before playback.
const (
	// SampleRate is the output sample rate in Hz.
	SampleRate = 22050
	// Channels is the number of output channels (1 = mono).
	Channels = 1
	// BitDepth is the bit depth per sample.
	BitDepth = 16
	// BytesPerSample is the number of bytes per sample.
	BytesPerSample = BitDepth / 8
)

// KeepaliveVolume is the near-zero volume of the keepalive loop.
const KeepaliveVolume = 0.01

// PlaybackState represents the current state of a single audio player.
type PlaybackState int

const (
	// PlaybackStopped indicates no audio is playing.
	PlaybackStopped PlaybackState = iota
	// PlaybackPlaying indicates audio is currently playing.
	PlaybackPlaying
	// PlaybackPaused indicates audio is paused.
	PlaybackPaused
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackStopped:
		return "stopped"
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	default:
		return "unknown"
	}
}
