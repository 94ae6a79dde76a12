package session

import "errors"

var (
	// ErrNoSource indicates a narration source with neither a path nor data.
	ErrNoSource = errors.New("narration source is empty")

	// ErrInvalidWAV indicates a clip that is not linear PCM WAV.
	ErrInvalidWAV = errors.New("invalid WAV data")

	// ErrAudioUnavailable indicates the audio context could not be created.
	ErrAudioUnavailable = errors.New("audio output unavailable")
)
