// ABOUTME: Video frame and stream status value types
// ABOUTME: Carried from the stream reader to the player facade
package media

import "github.com/StimKit/stimkit-go/pkg/status"

// Frame is a single decoded video frame.
//
// The pixel buffer holds raw decoded samples and is owned by whoever
// holds the frame; the decoder does not reuse it.
type Frame struct {
	// Index is the frame number within the stream. -1 means invalid or
	// unset. Only guaranteed monotonic for non-seekable sources.
	Index int

	// PTS is the presentation timestamp in movie time (seconds).
	PTS float64

	Width  int
	Height int

	// Pixels is the raw decoded sample buffer.
	Pixels []byte

	// Metadata is a snapshot of the stream metadata at decode time.
	Metadata Metadata

	// Library names the decoding library that produced the frame.
	Library string
}

// NullFrame is the sentinel returned before any frame has been decoded
// and after a seek invalidates the cached frame.
var NullFrame = &Frame{Index: -1, PTS: -1.0, Metadata: NullMetadata}

// Valid reports whether the frame holds decoded data. Decoders are not
// required to number frames, so the index does not factor in.
func (f *Frame) Valid() bool {
	return f != nil && len(f.Pixels) > 0
}

// StreamStatus reports the state of the stream at the time a frame was
// produced. Immutable once constructed.
type StreamStatus struct {
	Status status.Status

	// StreamTime is the current stream time in seconds. It increases
	// monotonically while playing and is shared across all streams.
	StreamTime float64

	// RecordingTime is the timestamp within the output file when
	// recording, zero otherwise.
	RecordingTime float64

	// RecordingBytes is the number of bytes written out when recording.
	RecordingBytes int64
}
