package session

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stillmind/sessionaudio/internal/silence"
)

func TestDecodeWAVSilence(t *testing.T) {
	data := silence.Encode(0.5, 8000)

	clip, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if clip.sampleRate != 8000 {
		t.Errorf("expected sample rate 8000, got %d", clip.sampleRate)
	}
	if got := len(clip.pcm); got != 8000 {
		t.Errorf("expected 8000 PCM bytes, got %d", got)
	}
	if got := clip.duration(); math.Abs(got-0.5) > 0.001 {
		t.Errorf("expected 0.5s duration, got %v", got)
	}
	for i, b := range clip.pcm {
		if b != 0 {
			t.Fatalf("expected silent PCM, byte %d is %d", i, b)
		}
	}
}

func TestDecodeWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, silence.Encode(0.1, 22050), 0o644); err != nil {
		t.Fatal(err)
	}

	clip, err := decodeWAVFile(path)
	if err != nil {
		t.Fatalf("decodeWAVFile failed: %v", err)
	}
	if clip.sampleRate != 22050 {
		t.Errorf("expected sample rate 22050, got %d", clip.sampleRate)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("RIF")},
		{"wrong magic", []byte("RIFFxxxxMP3 ")},
		{"header only", []byte("RIFF\x04\x00\x00\x00WAVE")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeWAV(tt.data); !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("expected ErrInvalidWAV, got %v", err)
			}
		})
	}
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	// Hand-built stereo container with two frames: (100, 200) and (-50, -150).
	le := binary.LittleEndian
	frames := []int16{100, 200, -50, -150}
	pcm := make([]byte, len(frames)*2)
	for i, s := range frames {
		le.PutUint16(pcm[i*2:i*2+2], uint16(s))
	}

	data := buildWAV(t, 2, 8000, pcm)
	clip, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if len(clip.pcm) != 4 {
		t.Fatalf("expected 2 mono samples, got %d bytes", len(clip.pcm))
	}
	if got := int16(le.Uint16(clip.pcm[0:2])); got != 150 {
		t.Errorf("expected first sample 150, got %d", got)
	}
	if got := int16(le.Uint16(clip.pcm[2:4])); got != -100 {
		t.Errorf("expected second sample -100, got %d", got)
	}
}

func TestResamplePCM(t *testing.T) {
	pcm := make([]byte, 8000*2) // one second at 8000 Hz

	out := resamplePCM(pcm, 8000, 22050)
	if got := len(out); got != 22050*2 {
		t.Errorf("expected 44100 bytes after upsampling, got %d", got)
	}

	same := resamplePCM(pcm, 8000, 8000)
	if len(same) != len(pcm) {
		t.Errorf("same-rate resample changed length: %d", len(same))
	}
}

// buildWAV assembles a minimal PCM container for decoder tests.
func buildWAV(t *testing.T, channels, rate int, pcm []byte) []byte {
	t.Helper()
	le := binary.LittleEndian
	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1)
	le.PutUint16(out[22:24], uint16(channels))
	le.PutUint32(out[24:28], uint32(rate))
	le.PutUint32(out[28:32], uint32(rate*channels*2))
	le.PutUint16(out[32:34], uint16(channels*2))
	le.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
