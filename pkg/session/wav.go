package session

import (
	"encoding/binary"
	"fmt"
	"os"
)

// wavClip is a decoded linear-PCM clip, normalized to mono 16-bit.
type wavClip struct {
	pcm        []byte
	sampleRate int
}

// duration returns the clip length in seconds at its native rate.
func (c wavClip) duration() float64 {
	if c.sampleRate == 0 {
		return 0
	}
	samples := len(c.pcm) / BytesPerSample
	return float64(samples) / float64(c.sampleRate)
}

// decodeWAVFile reads a WAV file and returns its PCM payload.
func decodeWAVFile(path string) (wavClip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wavClip{}, fmt.Errorf("unable to read clip: %w", err)
	}
	return decodeWAV(data)
}

// decodeWAV parses a linear-PCM WAV container. Unknown chunks are skipped;
// stereo is downmixed to mono by averaging.
func decodeWAV(data []byte) (wavClip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return wavClip{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}

	le := binary.LittleEndian
	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		pcm           []byte
		haveFmt       bool
	)

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(le.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			return wavClip{}, fmt.Errorf("%w: truncated %q chunk", ErrInvalidWAV, chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return wavClip{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			format := le.Uint16(data[body : body+2])
			if format != 1 {
				return wavClip{}, fmt.Errorf("%w: format %d is not linear PCM", ErrInvalidWAV, format)
			}
			channels = int(le.Uint16(data[body+2 : body+4]))
			sampleRate = int(le.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(le.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt || pcm == nil {
		return wavClip{}, fmt.Errorf("%w: missing fmt or data chunk", ErrInvalidWAV)
	}
	if bitsPerSample != 16 {
		return wavClip{}, fmt.Errorf("%w: %d bits per sample unsupported", ErrInvalidWAV, bitsPerSample)
	}
	if channels != 1 && channels != 2 {
		return wavClip{}, fmt.Errorf("%w: %d channels unsupported", ErrInvalidWAV, channels)
	}

	if channels == 2 {
		pcm = downmixStereo(pcm)
	}

	return wavClip{pcm: pcm, sampleRate: sampleRate}, nil
}

// downmixStereo averages interleaved stereo samples into mono.
func downmixStereo(pcm []byte) []byte {
	le := binary.LittleEndian
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int16(le.Uint16(pcm[i*4 : i*4+2]))
		r := int16(le.Uint16(pcm[i*4+2 : i*4+4]))
		mixed := int16((int32(l) + int32(r)) / 2)
		le.PutUint16(out[i*2:i*2+2], uint16(mixed))
	}
	return out
}

// resamplePCM converts mono 16-bit PCM between sample rates by
// nearest-neighbor sampling. Good enough for speech and silence; the engine
// does no signal processing beyond rate adaptation.
func resamplePCM(pcm []byte, fromRate, toRate int) []byte {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return pcm
	}
	le := binary.LittleEndian
	inSamples := len(pcm) / BytesPerSample
	outSamples := int(int64(inSamples) * int64(toRate) / int64(fromRate))
	out := make([]byte, outSamples*BytesPerSample)
	for i := 0; i < outSamples; i++ {
		src := int(int64(i) * int64(fromRate) / int64(toRate))
		if src >= inSamples {
			src = inSamples - 1
		}
		le.PutUint16(out[i*2:i*2+2], le.Uint16(pcm[src*2:src*2+2]))
	}
	return out
}
