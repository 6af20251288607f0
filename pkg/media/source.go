// ABOUTME: Decoder capability required by the movie player
// ABOUTME: Implemented by pkg/media/ffmpeg and by test fakes
package media

import "errors"

var (
	// ErrNotReady is returned by GetFrame when the decoder has no frame
	// available yet. Callers are expected to retry after a short sleep.
	ErrNotReady = errors.New("media: stream not ready")

	// ErrEndOfStream is returned by GetFrame once playback has run past
	// the last frame. A final frame may accompany it.
	ErrEndOfStream = errors.New("media: end of stream")
)

// Source is the capability the movie player needs from a codec library.
//
// A Source is not safe for concurrent use. Once handed to a stream
// reader, all calls must be routed through the reader's command channel;
// see movie.StreamReader.Exec.
type Source interface {
	// GetFrame pulls the next decoded frame without blocking. It returns
	// ErrNotReady when no frame is available yet and ErrEndOfStream once
	// the stream is exhausted; a frame may still be returned alongside
	// ErrEndOfStream.
	GetFrame() (*Frame, error)

	// Metadata queries the stream metadata. Only accurate after at least
	// one frame has been pulled.
	Metadata() Metadata

	// PTS returns the current presentation timestamp in seconds.
	PTS() float64

	// Seek moves the stream to the given timestamp. If relative is true
	// the timestamp is an offset from the current position. Returns the
	// post-seek presentation timestamp.
	Seek(timestamp float64, relative bool) (float64, error)

	SetPause(paused bool)
	Paused() bool

	SetMute(muted bool)
	Muted() bool

	// SetVolume sets the soundtrack volume. Values outside [0, 1] are
	// clamped by the caller.
	SetVolume(volume float64)
	Volume() float64

	Close() error
}

// Opener opens a media source from a path or URI.
type Opener func(path string) (Source, error)
