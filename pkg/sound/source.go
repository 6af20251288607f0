// ABOUTME: Sound stimulus sources for MP3, WAV and Ogg Opus files
// ABOUTME: All sources emit int32 samples in 24-bit range
package sound

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/StimKit/stimkit-go/pkg/audio"
	"github.com/StimKit/stimkit-go/pkg/audio/decode"
	"github.com/hajimehoshi/go-mp3"
	"gopkg.in/hraban/opus.v2"
)

// Source provides PCM samples for one sound stimulus. Unlike a looping
// music source it ends with io.EOF when the stimulus has played out.
type Source interface {
	// Read reads PCM samples into the buffer (int32 for 24-bit support).
	// Returns the number of samples read or an error.
	Read(samples []int32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Title returns the stimulus title
	Title() string
	// Close closes the source
	Close() error
}

// NewSource creates a source for a stimulus file, chosen by extension.
func NewSource(path string) (Source, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("sound file not found: %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3Source(path)
	case ".wav":
		return NewWAVSource(path)
	case ".opus", ".ogg":
		return NewOpusSource(path)
	default:
		return nil, fmt.Errorf("unsupported sound format: %s (supported: .mp3, .wav, .opus, .ogg)", ext)
	}
}

// titleFromPath derives a stimulus title from the file name.
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// MP3Source reads from an MP3 file
type MP3Source struct {
	file       *os.File
	decoder    *mp3.Decoder
	sampleRate int
	title      string
}

// NewMP3Source creates a new MP3 stimulus source
func NewMP3Source(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3Source{
		file:       f,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		title:      titleFromPath(path),
	}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) {
	// MP3 decoder outputs int16, 2 bytes per sample
	buf := make([]byte, len(samples)*2)

	n, err := s.decoder.Read(buf)
	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	// stimuli play once; EOF propagates to the caller
	return numSamples, err
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }
func (s *MP3Source) Channels() int   { return 2 } // go-mp3 outputs stereo
func (s *MP3Source) Title() string   { return s.title }
func (s *MP3Source) Close() error    { return s.file.Close() }

// WAVSource reads from a PCM WAV file
type WAVSource struct {
	file       *os.File
	decoder    decode.Decoder
	sampleRate int
	channels   int
	bitDepth   int
	remaining  int64 // bytes left in the data chunk
	title      string
}

// NewWAVSource creates a new WAV stimulus source. Only uncompressed PCM
// at 16 or 24 bits is supported.
func NewWAVSource(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	s := &WAVSource{file: f, title: titleFromPath(path)}
	if err := s.parseHeader(); err != nil {
		f.Close()
		return nil, err
	}

	dec, err := decode.NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: s.sampleRate,
		Channels:   s.channels,
		BitDepth:   s.bitDepth,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	s.decoder = dec

	return s, nil
}

// parseHeader walks the RIFF chunks to the start of sample data.
func (s *WAVSource) parseHeader() error {
	var riff [12]byte
	if _, err := io.ReadFull(s.file, riff[:]); err != nil {
		return fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return fmt.Errorf("not a WAV file")
	}

	haveFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(s.file, chunk[:]); err != nil {
			return fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(s.file, fmtChunk[:]); err != nil {
				return fmt.Errorf("read fmt chunk: %w", err)
			}
			if audioFormat := binary.LittleEndian.Uint16(fmtChunk[0:2]); audioFormat != 1 {
				return fmt.Errorf("unsupported WAV encoding %d (PCM only)", audioFormat)
			}
			s.channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			s.sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			s.bitDepth = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			haveFmt = true

			// skip any fmt extension bytes
			if size > 16 {
				if _, err := s.file.Seek(size-16, io.SeekCurrent); err != nil {
					return err
				}
			}

		case "data":
			if !haveFmt {
				return fmt.Errorf("WAV data chunk before fmt chunk")
			}
			s.remaining = size
			return nil

		default:
			if _, err := s.file.Seek(size, io.SeekCurrent); err != nil {
				return err
			}
		}
	}
}

func (s *WAVSource) Read(samples []int32) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}

	bytesPerSample := int64(s.bitDepth / 8)
	want := int64(len(samples)) * bytesPerSample
	if want > s.remaining {
		want = s.remaining
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(s.file, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, err
	}
	s.remaining -= int64(n)

	decoded, err := s.decoder.Decode(buf[:n])
	if err != nil {
		return 0, err
	}
	copy(samples, decoded)

	if s.remaining <= 0 {
		return len(decoded), io.EOF
	}
	return len(decoded), nil
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) Title() string   { return s.title }
func (s *WAVSource) Close() error    { return s.file.Close() }

// OpusSource reads from an Ogg Opus file
type OpusSource struct {
	file   *os.File
	stream *opus.Stream
	title  string
}

// NewOpusSource creates a new Ogg Opus stimulus source
func NewOpusSource(path string) (*OpusSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}

	return &OpusSource{
		file:   f,
		stream: stream,
		title:  titleFromPath(path),
	}, nil
}

func (s *OpusSource) Read(samples []int32) (int, error) {
	pcm16 := make([]int16, len(samples))

	n, err := s.stream.Read(pcm16)
	numSamples := n * s.Channels()
	if numSamples > len(samples) {
		numSamples = len(samples)
	}
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(pcm16[i])
	}

	return numSamples, err
}

// SampleRate returns 48000; Opus always decodes at 48 kHz.
func (s *OpusSource) SampleRate() int { return 48000 }

// Channels returns 2; stimuli are decoded as stereo.
func (s *OpusSource) Channels() int { return 2 }

func (s *OpusSource) Title() string { return s.title }

func (s *OpusSource) Close() error {
	s.stream.Close()
	return s.file.Close()
}
