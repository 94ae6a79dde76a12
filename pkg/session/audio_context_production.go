//go:build !nocgo
// +build !nocgo

package session

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Format is the OTO sample format for narration audio.
const Format = oto.FormatSignedInt16LE

// ProductionAudioContext implements AudioContextInterface using real oto audio.
type ProductionAudioContext struct {
	context *oto.Context
	mu      sync.Mutex
	ready   bool
}

// NewProductionAudioContext creates a new production audio context.
func NewProductionAudioContext() (*ProductionAudioContext, error) {
	pac := &ProductionAudioContext{}
	if err := pac.initialize(); err != nil {
		return nil, err
	}
	return pac, nil
}

// NewProductionAudioContextWithRetry creates a production audio context with
// platform-specific retry. CoreAudio in particular can reject the first
// initialization right after wake.
func NewProductionAudioContextWithRetry(platform *PlatformInfo) (*ProductionAudioContext, error) {
	maxRetries := 1
	retryDelay := 100 * time.Millisecond

	switch platform.OS {
	case PlatformDarwin:
		maxRetries = 3
		retryDelay = 200 * time.Millisecond
	case PlatformWindows:
		maxRetries = 2
		retryDelay = 150 * time.Millisecond
	case PlatformLinux:
		if platform.AudioSubsystem == AudioSubsystemPulseAudio {
			maxRetries = 2
		}
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			log.Debug("retrying audio context initialization", "attempt", i+1, "of", maxRetries)
			time.Sleep(retryDelay)
		}
		pac := &ProductionAudioContext{}
		if err := pac.initialize(); err != nil {
			lastErr = err
			continue
		}
		return pac, nil
	}
	return nil, fmt.Errorf("audio context initialization failed after %d attempts: %w", maxRetries, lastErr)
}

func (pac *ProductionAudioContext) initialize() error {
	pac.mu.Lock()
	defer pac.mu.Unlock()

	if pac.ready {
		return nil
	}

	options := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: Channels,
		Format:       Format,
		// Narration is not latency sensitive; a generous buffer avoids
		// underruns during ducking transitions.
		BufferSize: 100 * time.Millisecond,
	}

	context, readyChan, err := oto.NewContext(options)
	if err != nil {
		return fmt.Errorf("failed to create audio context: %w", err)
	}
	<-readyChan

	pac.context = context
	pac.ready = true
	return nil
}

// NewPlayer creates a player for one PCM clip.
func (pac *ProductionAudioContext) NewPlayer(pcm []byte) (AudioPlayerInterface, error) {
	return pac.newPlayer(pcm, false)
}

// NewLoopingPlayer creates a player that repeats the clip forever.
func (pac *ProductionAudioContext) NewLoopingPlayer(pcm []byte) (AudioPlayerInterface, error) {
	return pac.newPlayer(pcm, true)
}

func (pac *ProductionAudioContext) newPlayer(pcm []byte, looping bool) (AudioPlayerInterface, error) {
	pac.mu.Lock()
	defer pac.mu.Unlock()

	if !pac.ready || pac.context == nil {
		return nil, ErrAudioUnavailable
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: empty PCM data", ErrInvalidWAV)
	}
	if len(pcm)%BytesPerSample != 0 {
		return nil, fmt.Errorf("%w: %d bytes not aligned to %d-byte samples",
			ErrInvalidWAV, len(pcm), BytesPerSample)
	}

	// The player must own the data; the caller may discard its slice.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	var reader io.Reader
	tracking := &positionTrackingReader{reader: bytes.NewReader(data)}
	if looping {
		reader = newLoopReader(data)
	} else {
		reader = tracking
	}

	player := pac.context.NewPlayer(reader)
	if player == nil {
		return nil, fmt.Errorf("failed to create oto player")
	}

	pp := &productionPlayer{
		player:   player,
		tracking: tracking,
		looping:  looping,
		volume:   1.0,
	}
	pp.player.SetVolume(1.0)
	return pp, nil
}

// Suspend suspends the audio context.
func (pac *ProductionAudioContext) Suspend() error {
	pac.mu.Lock()
	defer pac.mu.Unlock()
	if !pac.ready || pac.context == nil {
		return ErrAudioUnavailable
	}
	return pac.context.Suspend()
}

// Resume resumes the audio context.
func (pac *ProductionAudioContext) Resume() error {
	pac.mu.Lock()
	defer pac.mu.Unlock()
	if !pac.ready || pac.context == nil {
		return ErrAudioUnavailable
	}
	return pac.context.Resume()
}

// Close marks the context unusable. oto contexts cannot be destroyed; the
// process-wide context is simply abandoned.
func (pac *ProductionAudioContext) Close() error {
	pac.mu.Lock()
	defer pac.mu.Unlock()
	pac.ready = false
	return nil
}

// IsReady returns whether the context is ready.
func (pac *ProductionAudioContext) IsReady() bool {
	pac.mu.Lock()
	defer pac.mu.Unlock()
	return pac.ready
}

// SampleRate returns the sample rate.
func (pac *ProductionAudioContext) SampleRate() int { return SampleRate }

// ChannelCount returns the number of channels.
func (pac *ProductionAudioContext) ChannelCount() int { return Channels }

// positionTrackingReader wraps a bytes.Reader and tracks position atomically
// so progress sampling never blocks on the audio goroutine.
type positionTrackingReader struct {
	reader   *bytes.Reader
	position int64 // atomic
	mu       sync.Mutex
}

func (ptr *positionTrackingReader) Read(p []byte) (n int, err error) {
	ptr.mu.Lock()
	defer ptr.mu.Unlock()

	n, err = ptr.reader.Read(p)
	if n > 0 {
		atomic.AddInt64(&ptr.position, int64(n))
	}
	return n, err
}

func (ptr *positionTrackingReader) GetPosition() int64 {
	return atomic.LoadInt64(&ptr.position)
}

// loopReader replays the same PCM data forever.
type loopReader struct {
	data []byte
	pos  int
	mu   sync.Mutex
}

func newLoopReader(data []byte) *loopReader {
	return &loopReader{data: data}
}

func (lr *loopReader) Read(p []byte) (int, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if len(lr.data) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		copied := copy(p[n:], lr.data[lr.pos:])
		n += copied
		lr.pos += copied
		if lr.pos >= len(lr.data) {
			lr.pos = 0
		}
	}
	return n, nil
}

// productionPlayer adapts an oto player to AudioPlayerInterface.
type productionPlayer struct {
	player   *oto.Player
	tracking *positionTrackingReader
	looping  bool
	mu       sync.Mutex
	volume   float64
	closed   bool
}

func (pp *productionPlayer) Play() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		return
	}
	pp.player.Play()
}

func (pp *productionPlayer) Pause() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		return
	}
	pp.player.Pause()
}

func (pp *productionPlayer) IsPlaying() bool {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		return false
	}
	return pp.player.IsPlaying()
}

// Position reports the playback offset derived from bytes consumed. The
// reading leads actual output by up to the context buffer size; progress
// sampling tolerates that. Looping players report zero.
func (pp *productionPlayer) Position() time.Duration {
	if pp.looping {
		return 0
	}
	bytesRead := pp.tracking.GetPosition()
	// Subtract what oto has buffered but not yet played.
	pp.mu.Lock()
	if !pp.closed {
		bytesRead -= int64(pp.player.BufferedSize())
	}
	pp.mu.Unlock()
	if bytesRead < 0 {
		bytesRead = 0
	}
	samples := bytesRead / BytesPerSample
	return time.Duration(samples) * time.Second / SampleRate
}

func (pp *productionPlayer) SetVolume(volume float64) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.volume = volume
	if !pp.closed {
		pp.player.SetVolume(volume)
	}
}

func (pp *productionPlayer) Volume() float64 {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return pp.volume
}

func (pp *productionPlayer) Close() error {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		return nil
	}
	pp.closed = true
	return pp.player.Close()
}
