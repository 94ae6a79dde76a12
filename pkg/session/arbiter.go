package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Arbiter owns the process-wide audio-focus state machine. Every narration
// playback goes through it: it decides whether to duck external audio,
// plays the clip, and restores the prior audio state afterward.
//
// The duck/restore ordering is the most safety-critical part of the engine.
// Deactivating the session at the wrong moment kills any active keepalive
// stream and silently breaks audio on a locked screen, so the restore step
// runs on every exit path and the background-safe variant never deactivates.
type Arbiter struct {
	cfg   Config
	audio AudioContextInterface
	focus FocusSession

	mu      sync.Mutex
	machine *stateMachine
	current *NarrationPlayer

	// externalHint is a secondary heuristic signal used when the platform
	// probe is unreliable (e.g. under emulation).
	externalHint atomic.Bool

	handlerMu            sync.Mutex
	interruptionHandlers []func(InterruptionEvent)
	duckListeners        []func(DuckEvent)
}

var (
	globalArbiter     *Arbiter
	globalArbiterOnce sync.Once
	globalArbiterErr  error
)

// NewArbiter creates an arbiter over the given audio context and focus
// session. Most callers want GetArbiter instead; constructing a second
// arbiter over the same focus session is a protocol violation.
func NewArbiter(audio AudioContextInterface, focus FocusSession, cfg Config) *Arbiter {
	return &Arbiter{
		cfg:     cfg,
		audio:   audio,
		focus:   focus,
		machine: newSessionStateMachine(),
	}
}

// GetArbiter returns the process-wide arbiter, creating it on first call.
func GetArbiter() (*Arbiter, error) {
	globalArbiterOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			globalArbiterErr = err
			return
		}
		audio, err := GetGlobalAudioContext()
		if err != nil {
			globalArbiterErr = err
			return
		}
		globalArbiter = NewArbiter(audio, NewFocusSession(audio), cfg)
	})
	return globalArbiter, globalArbiterErr
}

// State returns the current session state.
func (a *Arbiter) State() SessionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.machine.current
}

// Configure establishes the mixing baseline output category. Idempotent;
// configuration failures are logged and playback proceeds degraded.
func (a *Arbiter) Configure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.configureLocked()
}

func (a *Arbiter) configureLocked() error {
	if a.machine.current != StateUnconfigured {
		return nil
	}
	err := a.focus.Configure(CategoryAmbient, MixingOptions())
	if err != nil {
		log.Warn("audio category configuration failed", "error", err)
	}
	a.machine.transition(StateConfigured)
	a.emitDuck("configure")
	return err
}

// ActivateForMixing makes the session live under the mixing baseline. Used
// between narration clips when no ducking is needed.
func (a *Arbiter) ActivateForMixing() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activateForMixingLocked()
}

func (a *Arbiter) activateForMixingLocked() error {
	a.configureLocked()
	err := a.focus.Activate()
	if err != nil {
		log.Warn("session activation failed", "error", err)
	}
	a.machine.transition(StateActive)
	a.emitDuck("activate-mixing")
	return err
}

// Deactivate relinquishes the session with the notify-others flag so other
// apps' audio regains volume. Never call mid-session: it kills any active
// keepalive stream.
func (a *Arbiter) Deactivate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.focus.Deactivate(true)
	if err != nil {
		log.Warn("session deactivation failed", "error", err)
	}
	a.machine.transition(StateConfigured)
	a.emitDuck("deactivate")
	return err
}

// SetExternalAudioHint feeds the secondary external-audio signal used when
// the platform probe is unreliable.
func (a *Arbiter) SetExternalAudioHint(playing bool) {
	a.externalHint.Store(playing)
}

// PlayNarration is the single entry point for all narration playback. It
// cancels any in-flight clip, negotiates ducking with external audio, plays
// the clip to completion, and restores the prior audio state. The restore
// step runs on every exit path; a playback error is re-raised only after it
// has run.
//
// With backgroundSafe set, restoration only removes the ducking options and
// never deactivates the session, preserving any keepalive stream.
func (a *Arbiter) PlayNarration(ctx context.Context, src Source, backgroundSafe bool) error {
	a.mu.Lock()

	if a.current != nil {
		// Supersede: resume the previous waiter with no error.
		a.current.Stop()
	}
	player := NewNarrationPlayer(a.audio)
	a.current = player

	shouldDuck := a.cfg.ForceDuck || a.externalHint.Load() || a.focus.ExternalAudioPlaying()

	a.configureLocked()
	if shouldDuck {
		if err := a.focus.Configure(CategoryVoicePrompt, DuckingOptions()); err != nil {
			// The clip still plays, just unducked.
			log.Warn("ducking setup failed, playing unducked", "error", err)
		}
		if err := a.focus.Activate(); err != nil {
			log.Warn("forced activation failed", "error", err)
		}
		a.machine.transition(StateActive)
		a.machine.transition(StateDucking)
		a.emitDuck("duck-begin")
	} else {
		a.activateForMixingLocked()
	}
	a.mu.Unlock()

	defer func() {
		a.restore(backgroundSafe)
		a.mu.Lock()
		if a.current == player {
			a.current = nil
		}
		a.mu.Unlock()
	}()

	return player.Play(ctx, src)
}

// StopNarration synchronously halts any in-flight clip and releases its
// waiter. No-op when nothing is playing.
func (a *Arbiter) StopNarration() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		a.current.Stop()
		a.current = nil
	}
}

// restore returns the session to the mixing baseline after a narration
// clip. Both variants end in StateActive.
func (a *Arbiter) restore(backgroundSafe bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if backgroundSafe {
		a.machine.transition(StateRestoringBackgroundSafe)
		a.emitDuck("restore-background-safe")
		if err := a.focus.Configure(CategoryAmbient, MixingOptions()); err != nil {
			log.Warn("baseline restore failed", "error", err)
		}
		a.machine.transition(StateActive)
		a.emitDuck("restored")
		return
	}

	a.machine.transition(StateRestoringFull)
	a.emitDuck("restore-full")
	if err := a.focus.Deactivate(true); err != nil {
		log.Warn("deactivation during restore failed", "error", err)
	}

	// Give external audio a bounded window to resume before we re-activate.
	// Whichever happens first wins; proceeding on timeout is acceptable.
	deadline := time.Now().Add(a.cfg.RestorePollTimeout)
	for !a.focus.ExternalAudioPlaying() && time.Now().Before(deadline) {
		time.Sleep(a.cfg.RestorePollInterval)
	}

	if err := a.focus.Configure(CategoryAmbient, MixingOptions()); err != nil {
		log.Warn("baseline restore failed", "error", err)
	}
	if err := a.focus.Activate(); err != nil {
		log.Warn("re-activation after restore failed", "error", err)
	}
	a.machine.transition(StateActive)
	a.emitDuck("restored")
}

// RegisterInterruptionHandler registers a handler for platform audio
// interruptions. Handlers run synchronously on the delivering goroutine and
// must not call back into the arbiter.
func (a *Arbiter) RegisterInterruptionHandler(fn func(InterruptionEvent)) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.interruptionHandlers = append(a.interruptionHandlers, fn)
}

// OnDuckEvent registers a listener for focus-transition diagnostics tags.
func (a *Arbiter) OnDuckEvent(fn func(DuckEvent)) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.duckListeners = append(a.duckListeners, fn)
}

// HandleInterruption delivers a platform interruption event. On "ended"
// with the resume hint, the session re-activates automatically; a failed
// reactivation is logged, non-fatal.
func (a *Arbiter) HandleInterruption(ev InterruptionEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	a.emitDuck("interruption-" + ev.Type.String())

	a.handlerMu.Lock()
	handlers := make([]func(InterruptionEvent), len(a.interruptionHandlers))
	copy(handlers, a.interruptionHandlers)
	a.handlerMu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}

	if ev.Type == InterruptionEnded && ev.ShouldResume {
		if err := a.focus.Activate(); err != nil {
			log.Warn("reactivation after interruption failed", "error", err)
		}
	}
}

func (a *Arbiter) emitDuck(tag string) {
	a.handlerMu.Lock()
	listeners := make([]func(DuckEvent), len(a.duckListeners))
	copy(listeners, a.duckListeners)
	a.handlerMu.Unlock()

	ev := DuckEvent{Tag: tag, Timestamp: time.Now()}
	for _, fn := range listeners {
		fn(ev)
	}
	LogPlaybackEvent("focus-transition", "tag", tag)
}
