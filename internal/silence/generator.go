// Package silence generates exact-duration silent WAV assets. The assets are
// used as timeline spacers between narration clips and as the source for the
// near-silent keepalive loop. Generated files are cached on disk keyed by
// duration, so repeated requests for the same gap are free.
package silence

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

const (
	// DefaultSampleRate is the sample rate for generated silence. Spacers
	// carry no signal, so the lowest common WAV rate keeps files small.
	DefaultSampleRate = 8000

	// headerSize is the size of a canonical linear-PCM WAV header.
	headerSize = 44

	channels       = 1
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// Generator writes silent WAV files into a dedicated scratch directory and
// reuses them across calls. Safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	dir        string
	sampleRate int
}

// DefaultDir returns the scratch directory for silence assets.
func DefaultDir() (string, error) {
	scope := gap.NewScope(gap.User, "sessionaudio")
	cacheDir, err := scope.CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to resolve cache dir: %w", err)
	}
	return filepath.Join(cacheDir, "silence"), nil
}

// NewGenerator creates a generator rooted at dir. An empty dir selects the
// user cache scope. The directory is created if missing.
func NewGenerator(dir string, sampleRate int) (*Generator, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create silence dir: %w", err)
	}
	return &Generator{dir: dir, sampleRate: sampleRate}, nil
}

// Dir returns the scratch directory the generator writes into.
func (g *Generator) Dir() string {
	return g.dir
}

// SampleRate returns the sample rate generated assets declare.
func (g *Generator) SampleRate() int {
	return g.sampleRate
}

// Generate returns the path of a silent WAV file of the given duration,
// writing it only if no asset for that duration exists yet. The cache key is
// the duration rounded to one decimal place.
func (g *Generator) Generate(durationSeconds float64) (string, error) {
	if durationSeconds <= 0 {
		return "", fmt.Errorf("silence duration must be positive, got %v", durationSeconds)
	}

	path := g.assetPath(durationSeconds)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		log.Debug("silence asset cache hit", "path", path)
		return path, nil
	}

	data := Encode(durationSeconds, g.sampleRate)

	// Write through a temp file so a partial write never becomes a cached
	// asset.
	tmp, err := os.CreateTemp(g.dir, "silence-*.tmp")
	if err != nil {
		return "", fmt.Errorf("unable to create silence asset: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("unable to write silence asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("unable to close silence asset: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("unable to finalize silence asset: %w", err)
	}

	log.Debug("silence asset generated",
		"duration", durationSeconds,
		"sample_rate", g.sampleRate,
		"bytes", len(data),
		"path", path)

	return path, nil
}

// assetPath builds the cache path for a duration. One decimal place keeps
// floating-point-adjacent gap lengths on the same asset.
func (g *Generator) assetPath(durationSeconds float64) string {
	key := fmt.Sprintf("%.1f", durationSeconds)
	return filepath.Join(g.dir, fmt.Sprintf("silence_%ss_%d.wav", key, g.sampleRate))
}

// Encode synthesizes a complete mono 16-bit linear-PCM WAV file of the given
// duration: a 44-byte header followed by round(sampleRate*duration) zeroed
// samples. The byte layout is load-bearing; any standard WAV parser must
// accept the output unmodified.
func Encode(durationSeconds float64, sampleRate int) []byte {
	numSamples := int(math.Round(float64(sampleRate) * durationSeconds))
	dataSize := numSamples * bytesPerSample
	buf := make([]byte, headerSize+dataSize)

	le := binary.LittleEndian

	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(headerSize+dataSize-8))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16) // fmt chunk size
	le.PutUint16(buf[20:22], 1)  // PCM
	le.PutUint16(buf[22:24], channels)
	le.PutUint32(buf[24:28], uint32(sampleRate))
	le.PutUint32(buf[28:32], uint32(sampleRate*channels*bytesPerSample)) // byte rate
	le.PutUint16(buf[32:34], channels*bytesPerSample)                    // block align
	le.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(dataSize))

	// Sample bytes are already zero.
	return buf
}
