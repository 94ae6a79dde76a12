package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Source identifies a playable narration asset: either a filesystem path or
// an in-memory byte buffer. Buffers are written to a temporary file before
// playback and removed afterward regardless of outcome.
type Source struct {
	Path string
	Data []byte
}

// FileSource references an audio asset on disk.
func FileSource(path string) Source { return Source{Path: path} }

// BytesSource references already-synthesized audio bytes.
func BytesSource(data []byte) Source { return Source{Data: data} }

// materialize resolves the source to a readable path. The returned cleanup
// must run after playback; it removes the temporary file for byte sources.
func (s Source) materialize() (string, func(), error) {
	noop := func() {}
	if len(s.Data) > 0 {
		tmp, err := os.CreateTemp("", "narration-*.wav")
		if err != nil {
			return "", noop, fmt.Errorf("unable to stage narration buffer: %w", err)
		}
		name := tmp.Name()
		if _, err := tmp.Write(s.Data); err != nil {
			tmp.Close()
			os.Remove(name)
			return "", noop, fmt.Errorf("unable to stage narration buffer: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(name)
			return "", noop, fmt.Errorf("unable to stage narration buffer: %w", err)
		}
		return name, func() { os.Remove(name) }, nil
	}
	if s.Path == "" {
		return "", noop, ErrNoSource
	}
	return s.Path, noop, nil
}

// NarrationPlayer plays a single clip to completion. Play suspends its
// caller until the clip finishes, fails, or is stopped; every path resolves
// the suspension exactly once, so a caller is never left blocked.
type NarrationPlayer struct {
	audio AudioContextInterface

	mu       sync.Mutex
	player   AudioPlayerInterface
	waiter   chan error
	resolved bool
	paused   bool
}

// NewNarrationPlayer creates a player bound to an audio context.
func NewNarrationPlayer(audio AudioContextInterface) *NarrationPlayer {
	return &NarrationPlayer{audio: audio}
}

// Play loads the source and blocks until completion, Stop, or context
// cancellation. A missing or unreadable clip is a logged no-op, not an
// error, so one bad asset never aborts a multi-clip session. Cancellation
// returns nil; only real playback failures surface as errors.
func (np *NarrationPlayer) Play(ctx context.Context, src Source) error {
	np.mu.Lock()
	if np.waiter != nil && !np.resolved {
		// A previous suspension is still outstanding; release it cleanly
		// before starting over.
		log.Warn("superseding outstanding narration playback")
		np.stopLocked()
	}
	waiter := make(chan error, 1)
	np.waiter = waiter
	np.resolved = false
	np.paused = false
	np.mu.Unlock()

	path, cleanup, err := src.materialize()
	if err != nil {
		np.resolve(waiter, err)
		return np.await(ctx, waiter)
	}
	defer cleanup()

	if _, err := os.Stat(path); err != nil {
		log.Warn("narration clip missing, skipping", "path", path)
		np.resolve(waiter, nil)
		return np.await(ctx, waiter)
	}

	clip, err := decodeWAVFile(path)
	if err != nil {
		log.Warn("narration clip unreadable, skipping", "path", path, "error", err)
		np.resolve(waiter, nil)
		return np.await(ctx, waiter)
	}

	pcm := resamplePCM(clip.pcm, clip.sampleRate, np.audio.SampleRate())
	player, err := np.audio.NewPlayer(pcm)
	if err != nil {
		np.resolve(waiter, fmt.Errorf("unable to start narration playback: %w", err))
		return np.await(ctx, waiter)
	}

	np.mu.Lock()
	if np.resolved {
		// Stopped while the clip was loading.
		np.mu.Unlock()
		player.Close()
		return np.await(ctx, waiter)
	}
	np.player = player
	np.mu.Unlock()

	player.Play()
	go np.monitor(player, waiter)

	return np.await(ctx, waiter)
}

// Stop cancels playback immediately and resolves any pending suspension
// with no error. Safe to call at any time, including with nothing in
// flight.
func (np *NarrationPlayer) Stop() {
	np.mu.Lock()
	defer np.mu.Unlock()
	np.stopLocked()
}

// Pause pauses the in-flight clip.
func (np *NarrationPlayer) Pause() {
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.player != nil && !np.paused {
		np.player.Pause()
		np.paused = true
	}
}

// Resume resumes a paused clip.
func (np *NarrationPlayer) Resume() {
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.player != nil && np.paused {
		np.paused = false
		np.player.Play()
	}
}

// State reports the playback state of the in-flight clip.
func (np *NarrationPlayer) State() PlaybackState {
	np.mu.Lock()
	defer np.mu.Unlock()
	switch {
	case np.player == nil:
		return PlaybackStopped
	case np.paused:
		return PlaybackPaused
	default:
		return PlaybackPlaying
	}
}

// Position returns the in-flight clip's playback offset, or zero.
func (np *NarrationPlayer) Position() time.Duration {
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.player == nil {
		return 0
	}
	return np.player.Position()
}

func (np *NarrationPlayer) stopLocked() {
	if np.player != nil {
		np.player.Pause()
		np.player.Close()
		np.player = nil
	}
	np.resolveLocked(nil)
}

// resolveLocked settles the current suspension exactly once. A second
// attempt is an invariant violation: logged and ignored.
func (np *NarrationPlayer) resolveLocked(err error) {
	if np.waiter == nil {
		return
	}
	if np.resolved {
		log.Error("narration completion resolved twice, ignoring")
		return
	}
	np.resolved = true
	np.waiter <- err
}

func (np *NarrationPlayer) resolve(waiter chan error, err error) {
	np.mu.Lock()
	defer np.mu.Unlock()
	if np.waiter != waiter {
		return
	}
	np.resolveLocked(err)
}

// await blocks until the suspension settles. Cancellation stops playback,
// which itself settles the suspension.
func (np *NarrationPlayer) await(ctx context.Context, waiter chan error) error {
	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		np.Stop()
		return <-waiter
	}
}

// monitor watches the underlying player and resolves the suspension when
// the clip drains.
func (np *NarrationPlayer) monitor(player AudioPlayerInterface, waiter chan error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		np.mu.Lock()
		if np.waiter != waiter || np.resolved {
			np.mu.Unlock()
			return
		}
		if np.paused {
			np.mu.Unlock()
			continue
		}
		if !player.IsPlaying() {
			player.Close()
			np.player = nil
			np.resolveLocked(nil)
			np.mu.Unlock()
			return
		}
		np.mu.Unlock()
	}
}
