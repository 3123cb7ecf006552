package analysis

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// decodeAudio turns an uploaded clip into mono float64 samples in [-1, 1]
// at the container's native sample rate.
func decodeAudio(audio []byte, format string) ([]float64, int, error) {
	switch strings.ToLower(format) {
	case "wav":
		return decodeWAV(audio)
	case "mp3":
		return decodeMP3(audio)
	default:
		return nil, 0, fmt.Errorf("unsupported audio format: %s", format)
	}
}

func decodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE container")
	}
	var (
		channels   int
		sampleRate int
		bitDepth   int
		pcm        []byte
	)
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkLen > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", chunkID)
		}
		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, 0, fmt.Errorf("short fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, 0, fmt.Errorf("unsupported wav encoding %d, want PCM", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+chunkLen]
		}
		// Chunks are word aligned.
		offset = body + chunkLen + chunkLen%2
	}
	if sampleRate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if bitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d, want 16", bitDepth)
	}
	if len(pcm) == 0 {
		return nil, 0, fmt.Errorf("missing data chunk")
	}
	samples := pcm16ToMono(pcm, channels)
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("empty audio stream")
	}
	return samples, sampleRate, nil
}

func decodeMP3(data []byte) ([]float64, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode: %w", err)
	}
	// go-mp3 always emits 16-bit little-endian stereo.
	samples := pcm16ToMono(pcm, 2)
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("empty audio stream")
	}
	return samples, dec.SampleRate(), nil
}

func pcm16ToMono(pcm []byte, channels int) []float64 {
	frameBytes := 2 * channels
	n := len(pcm) / frameBytes
	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			off := i*frameBytes + ch*2
			sum += float64(int16(binary.LittleEndian.Uint16(pcm[off : off+2])))
		}
		samples = append(samples, sum/float64(channels)/32768.0)
	}
	return samples
}
