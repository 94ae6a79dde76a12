package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stillmind/sessionaudio/internal/silence"
)

// writeClip writes a silent WAV of the given duration and returns its path.
func writeClip(t *testing.T, d float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, silence.Encode(d, SampleRate), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlayCompletesShortClip(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	err := np.Play(context.Background(), FileSource(writeClip(t, 0.05)))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if audio.PlayersCreated != 1 {
		t.Errorf("expected 1 player created, got %d", audio.PlayersCreated)
	}
	if audio.PlayersClosed != 1 {
		t.Errorf("expected player closed after completion, got %d", audio.PlayersClosed)
	}
}

func TestPlayMissingClipIsSkipped(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	start := time.Now()
	err := np.Play(context.Background(), FileSource("/nonexistent/clip.wav"))
	if err != nil {
		t.Fatalf("missing clip should resolve without error, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("missing clip should resolve immediately")
	}
	if audio.PlayersCreated != 0 {
		t.Errorf("no player should be created for a missing clip, got %d", audio.PlayersCreated)
	}
}

func TestPlayUnreadableClipIsSkipped(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := np.Play(context.Background(), FileSource(path)); err != nil {
		t.Fatalf("unreadable clip should resolve without error, got %v", err)
	}
}

func TestPlayEmptySource(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	if err := np.Play(context.Background(), Source{}); err != ErrNoSource {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

func TestPlayBytesSource(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	err := np.Play(context.Background(), BytesSource(silence.Encode(0.05, SampleRate)))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if audio.PlayersCreated != 1 {
		t.Errorf("expected 1 player created, got %d", audio.PlayersCreated)
	}
}

func TestStopReleasesSuspendedCaller(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	path := writeClip(t, 2.0)
	done := make(chan error, 1)
	go func() {
		done <- np.Play(context.Background(), FileSource(path))
	}()

	time.Sleep(100 * time.Millisecond)
	np.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("stopped playback should resolve without error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop did not release the suspended caller")
	}
}

func TestContextCancellationStopsPlayback(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	path := writeClip(t, 2.0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- np.Play(ctx, FileSource(path))
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancelled playback should resolve without error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancellation did not release the suspended caller")
	}
}

func TestSecondPlaySupersedesFirst(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	long := writeClip(t, 2.0)
	first := make(chan error, 1)
	go func() {
		first <- np.Play(context.Background(), FileSource(long))
	}()
	time.Sleep(100 * time.Millisecond)

	if err := np.Play(context.Background(), FileSource(writeClip(t, 0.05))); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}

	select {
	case err := <-first:
		if err != nil {
			t.Errorf("superseded playback should resolve without error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("superseded caller was left suspended")
	}
}

func TestStopWithNothingInFlight(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)
	np.Stop()
	np.Stop()
}

func TestPauseResume(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	path := writeClip(t, 0.3)
	done := make(chan error, 1)
	go func() {
		done <- np.Play(context.Background(), FileSource(path))
	}()
	time.Sleep(100 * time.Millisecond)

	if got := np.State(); got != PlaybackPlaying {
		t.Errorf("state = %v before pause, want %v", got, PlaybackPlaying)
	}

	np.Pause()
	if got := np.State(); got != PlaybackPaused {
		t.Errorf("state = %v after pause, want %v", got, PlaybackPaused)
	}
	pos := np.Position()
	time.Sleep(150 * time.Millisecond)
	if moved := np.Position() - pos; moved > 20*time.Millisecond {
		t.Errorf("position advanced %v while paused", moved)
	}

	np.Resume()
	if got := np.State(); got != PlaybackPlaying {
		t.Errorf("state = %v after resume, want %v", got, PlaybackPlaying)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Play failed after pause/resume: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("clip never finished after resume")
	}
	if got := np.State(); got != PlaybackStopped {
		t.Errorf("state = %v after completion, want %v", got, PlaybackStopped)
	}
}

func TestResolveTwiceIsIgnored(t *testing.T) {
	audio, _ := NewMockAudioContext()
	np := NewNarrationPlayer(audio)

	waiter := make(chan error, 1)
	np.mu.Lock()
	np.waiter = waiter
	np.resolveLocked(nil)
	np.resolveLocked(ErrNoSource)
	np.mu.Unlock()

	if err := <-waiter; err != nil {
		t.Errorf("first resolution should win, got %v", err)
	}
	select {
	case err := <-waiter:
		t.Errorf("second resolution leaked through: %v", err)
	default:
	}
}
