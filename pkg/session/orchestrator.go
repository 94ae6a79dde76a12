package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stillmind/sessionaudio/internal/silence"
	"github.com/stillmind/sessionaudio/internal/timeline"
)

// OrchestratorState represents the lifecycle of one timed session.
type OrchestratorState int

const (
	// OrchestratorIdle indicates no session has started.
	OrchestratorIdle OrchestratorState = iota
	// OrchestratorPlaying indicates the playlist is advancing.
	OrchestratorPlaying
	// OrchestratorPaused indicates playback and keepalive are both paused.
	OrchestratorPaused
	// OrchestratorCompleted indicates the final playlist item finished.
	OrchestratorCompleted
	// OrchestratorStopped indicates the session was torn down.
	OrchestratorStopped
)

func (s OrchestratorState) String() string {
	switch s {
	case OrchestratorIdle:
		return "idle"
	case OrchestratorPlaying:
		return "playing"
	case OrchestratorPaused:
		return "paused"
	case OrchestratorCompleted:
		return "completed"
	case OrchestratorStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Orchestrator drives an ordered playlist end-to-end: it plays each item in
// sequence, samples elapsed time and phase on a fixed interval, and keeps a
// near-silent looping stream alive so the platform does not suspend the app
// during long gaps. Owns its timeline entries for the lifetime of one
// session; they are discarded on Stop.
type Orchestrator struct {
	arbiter *Arbiter
	audio   AudioContextInterface
	cfg     Config

	mu            sync.Mutex
	state         OrchestratorState
	items         []timeline.Item
	entries       []timeline.Entry
	totalDuration float64
	completedDur  float64
	elapsed       float64
	phase         string
	current       *NarrationPlayer
	keepalive     AudioPlayerInterface
	stopCh        chan struct{}
	stopOnce      sync.Once
	completeFired bool

	onProgress func(elapsedSeconds float64, phase string)
	onComplete func()
}

// NewOrchestrator creates an orchestrator for one built timeline.
func NewOrchestrator(arbiter *Arbiter, audio AudioContextInterface, cfg Config, items []timeline.Item, entries []timeline.Entry, totalDuration float64) *Orchestrator {
	return &Orchestrator{
		arbiter:       arbiter,
		audio:         audio,
		cfg:           cfg,
		state:         OrchestratorIdle,
		items:         items,
		entries:       entries,
		totalDuration: totalDuration,
		stopCh:        make(chan struct{}),
	}
}

// OnProgress registers the periodic (elapsedSeconds, phase) callback.
func (o *Orchestrator) OnProgress(fn func(elapsedSeconds float64, phase string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onProgress = fn
}

// OnComplete registers the one-shot completion callback.
func (o *Orchestrator) OnComplete(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onComplete = fn
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Elapsed returns the last sampled elapsed time in seconds.
func (o *Orchestrator) Elapsed() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.elapsed
}

// Phase returns the last reported phase label.
func (o *Orchestrator) Phase() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Play starts the session: baseline activation, keepalive loop, playlist
// advance, and progress sampling. Timeline playback never ducks; there are
// no ad-hoc external-audio decisions mid-sequence.
func (o *Orchestrator) Play(ctx context.Context) error {
	o.mu.Lock()
	if o.state != OrchestratorIdle {
		o.mu.Unlock()
		return nil
	}
	o.state = OrchestratorPlaying
	o.mu.Unlock()

	// Activation failures are logged and playback proceeds degraded.
	o.arbiter.Configure()
	o.arbiter.ActivateForMixing()

	o.startKeepalive()

	go o.run(ctx)
	go o.progressLoop()

	LogPlaybackEvent("session-start", "items", len(o.items), "total_duration", o.totalDuration)
	return nil
}

// Pause pauses the current clip and the keepalive loop together. Pausing
// one without the other means either dead air or the platform treating the
// session as ended.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != OrchestratorPlaying {
		return
	}
	o.state = OrchestratorPaused
	if o.current != nil {
		o.current.Pause()
	}
	if o.keepalive != nil {
		o.keepalive.Pause()
	}
	LogPlaybackEvent("session-pause", "elapsed", o.elapsed)
}

// Resume resumes both the current clip and the keepalive loop.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != OrchestratorPaused {
		return
	}
	o.state = OrchestratorPlaying
	if o.current != nil {
		o.current.Resume()
	}
	if o.keepalive != nil {
		o.keepalive.Play()
	}
	LogPlaybackEvent("session-resume", "elapsed", o.elapsed)
}

// Stop tears the session down: clears the playlist, stops and releases the
// keepalive stream, and cancels progress sampling. Idempotent.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.state == OrchestratorStopped {
		o.mu.Unlock()
		return
	}
	o.state = OrchestratorStopped
	current := o.current
	o.current = nil
	keepalive := o.keepalive
	o.keepalive = nil
	o.items = nil
	o.entries = nil
	o.mu.Unlock()

	o.stopOnce.Do(func() { close(o.stopCh) })
	if current != nil {
		current.Stop()
	}
	if keepalive != nil {
		keepalive.Pause()
		keepalive.Close()
	}
	LogPlaybackEvent("session-stop")
}

// startKeepalive begins the near-silent infinite loop. Failure downgrades
// the keepalive to a no-op; the session still plays in the foreground.
func (o *Orchestrator) startKeepalive() {
	pcm := silence.Encode(1.0, o.audio.SampleRate())[44:]
	player, err := o.audio.NewLoopingPlayer(pcm)
	if err != nil {
		log.Warn("keepalive stream unavailable", "error", err)
		return
	}
	player.SetVolume(o.cfg.KeepaliveVolume)
	player.Play()

	o.mu.Lock()
	o.keepalive = player
	o.mu.Unlock()
}

// run advances the playlist one item at a time.
func (o *Orchestrator) run(ctx context.Context) {
	o.mu.Lock()
	items := o.items
	o.mu.Unlock()

	for _, item := range items {
		select {
		case <-o.stopCh:
			return
		case <-ctx.Done():
			o.Stop()
			return
		default:
		}

		// A pause can land between items, with no clip to hold it back.
		for o.State() == OrchestratorPaused {
			select {
			case <-o.stopCh:
				return
			case <-time.After(20 * time.Millisecond):
			}
		}

		player := NewNarrationPlayer(o.audio)
		o.mu.Lock()
		if o.state != OrchestratorPlaying && o.state != OrchestratorPaused {
			o.mu.Unlock()
			return
		}
		o.current = player
		o.mu.Unlock()

		// Asset errors are logged inside Play and treated as an instantly
		// complete clip; only real playback failures surface here, and the
		// session keeps advancing either way.
		if err := player.Play(ctx, FileSource(item.Source)); err != nil {
			log.Warn("playlist item failed", "source", item.Source, "error", err)
		}

		o.mu.Lock()
		if o.state == OrchestratorStopped {
			o.mu.Unlock()
			return
		}
		o.completedDur += item.Duration
		o.current = nil
		o.mu.Unlock()
	}

	o.complete()
}

// complete fires exactly once when the final item finishes.
func (o *Orchestrator) complete() {
	o.mu.Lock()
	if o.state != OrchestratorPlaying || o.completeFired {
		o.mu.Unlock()
		return
	}
	o.state = OrchestratorCompleted
	o.completeFired = true
	o.elapsed = o.totalDuration
	o.phase = timeline.PhaseComplete
	keepalive := o.keepalive
	o.keepalive = nil
	onProgress := o.onProgress
	onComplete := o.onComplete
	o.mu.Unlock()

	o.stopOnce.Do(func() { close(o.stopCh) })
	if keepalive != nil {
		keepalive.Pause()
		keepalive.Close()
	}
	if onProgress != nil {
		onProgress(o.totalDuration, timeline.PhaseComplete)
	}
	if onComplete != nil {
		onComplete()
	}
	LogPlaybackEvent("session-complete", "total_duration", o.totalDuration)
}

// progressLoop samples elapsed time and phase on a fixed interval while
// playing.
func (o *Orchestrator) progressLoop() {
	ticker := time.NewTicker(o.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.sampleProgress()
		}
	}
}

func (o *Orchestrator) sampleProgress() {
	o.mu.Lock()
	if o.state != OrchestratorPlaying {
		o.mu.Unlock()
		return
	}

	// Elapsed = everything fully completed plus the current clip's own
	// offset. Invalid readings (looping players, not-yet-started clips)
	// contribute zero; the running total never goes backwards.
	offset := 0.0
	if o.current != nil {
		if pos := o.current.Position(); pos > 0 {
			offset = pos.Seconds()
		}
	}
	elapsed := o.completedDur + offset
	if elapsed < o.elapsed {
		elapsed = o.elapsed
	}
	o.elapsed = elapsed

	// Phase = last entry at or before the elapsed point, scanning from the
	// end. Silence and interjection entries never replace the displayed
	// phase; the label stays stable across spacer gaps.
	for i := len(o.entries) - 1; i >= 0; i-- {
		if o.entries[i].StartTime <= elapsed {
			p := o.entries[i].Phase
			if p != timeline.PhaseSilence && p != timeline.PhaseInterjection {
				o.phase = p
			}
			break
		}
	}

	phase := o.phase
	onProgress := o.onProgress
	o.mu.Unlock()

	if onProgress != nil {
		onProgress(elapsed, phase)
	}
}
