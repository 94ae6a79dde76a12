package session

import (
	"github.com/charmbracelet/log"
)

// Category is the output-audio category the session is configured under.
type Category string

const (
	// CategoryAmbient is the mixing baseline: background playback allowed,
	// coexists with other audio, no exclusivity.
	CategoryAmbient Category = "ambient"
	// CategoryVoicePrompt is the narration mode used while ducking other
	// audio sources.
	CategoryVoicePrompt Category = "voice-prompt"
)

// CategoryOptions modify how the configured category interacts with other
// audio sources.
type CategoryOptions struct {
	MixWithOthers        bool
	DuckOthers           bool
	InterruptSpokenAudio bool
}

// MixingOptions is the baseline option set used outside of ducking.
func MixingOptions() CategoryOptions {
	return CategoryOptions{MixWithOthers: true}
}

// DuckingOptions is the option set applied while a narration clip plays over
// external audio.
func DuckingOptions() CategoryOptions {
	return CategoryOptions{
		MixWithOthers:        true,
		DuckOthers:           true,
		InterruptSpokenAudio: true,
	}
}

// FocusSession abstracts the platform's process-wide audio-focus facility.
// All access goes through the Arbiter; no other component may request or
// release focus directly.
type FocusSession interface {
	// Configure establishes the output category and options. Safe to call
	// repeatedly; only the options change after the first call.
	Configure(category Category, opts CategoryOptions) error

	// Activate makes the session live under the configured category.
	Activate() error

	// Deactivate relinquishes the session. With notifyOthers set, other
	// apps' audio is told to restore its volume.
	Deactivate(notifyOthers bool) error

	// ExternalAudioPlaying reports whether another app is audibly playing.
	ExternalAudioPlaying() bool
}

// platformFocusSession implements FocusSession on top of the audio context
// and OS-level probing. Category and options have no hardware effect through
// oto; they are tracked for protocol correctness and diagnostics, while
// activation maps onto context suspend/resume.
type platformFocusSession struct {
	audio    AudioContextInterface
	platform *PlatformInfo
	category Category
	options  CategoryOptions
}

// NewFocusSession creates the production focus session for an audio context.
func NewFocusSession(audio AudioContextInterface) FocusSession {
	return &platformFocusSession{
		audio:    audio,
		platform: DetectPlatform(),
	}
}

func (fs *platformFocusSession) Configure(category Category, opts CategoryOptions) error {
	fs.category = category
	fs.options = opts
	log.Debug("focus session configured",
		"category", category,
		"duck_others", opts.DuckOthers,
		"mix", opts.MixWithOthers)
	return nil
}

func (fs *platformFocusSession) Activate() error {
	if err := fs.audio.Resume(); err != nil {
		return err
	}
	log.Debug("focus session activated", "category", fs.category)
	return nil
}

func (fs *platformFocusSession) Deactivate(notifyOthers bool) error {
	if err := fs.audio.Suspend(); err != nil {
		return err
	}
	log.Debug("focus session deactivated", "notify_others", notifyOthers)
	return nil
}

func (fs *platformFocusSession) ExternalAudioPlaying() bool {
	return externalAudioPlaying(fs.platform)
}
