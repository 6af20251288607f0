// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes a complete MP3 stream to int32 samples
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/StimKit/stimkit-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio. Unlike the packet decoders it consumes
// a whole encoded stream per Decode call, which matches how sound
// stimuli are loaded from disk in one piece.
type MP3Decoder struct {
	sampleRate int
}

// NewMP3 creates a new MP3 decoder
func NewMP3(format audio.Format) (Decoder, error) {
	if format.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}

	return &MP3Decoder{}, nil
}

// Decode converts a complete MP3 stream to int32 samples
func (d *MP3Decoder) Decode(data []byte) ([]int32, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}
	d.sampleRate = decoder.SampleRate()

	// go-mp3 emits 16-bit little-endian stereo PCM
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(raw) / 2 // 2 bytes per int16 sample
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	return samples, nil
}

// SampleRate reports the rate of the most recently decoded stream, or 0
// before the first Decode.
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}
