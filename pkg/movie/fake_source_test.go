// ABOUTME: In-package fake media source for reader and player tests
// ABOUTME: Scripted frames at a fixed rate with pause/seek/volume bookkeeping
package movie

import (
	"math"
	"sync"

	"github.com/StimKit/stimkit-go/pkg/media"
)

// fakeSource plays a scripted clip of frameCount frames at the given
// frame rate. It is safe for concurrent use so tests can poke at it
// while the reader goroutine runs.
type fakeSource struct {
	mu sync.Mutex

	frameCount int
	frameRate  media.Rational
	duration   float64

	// metaAfter delays a valid frame rate until that many frames have
	// been pulled, mimicking decoders that report 0-denominator rates
	// at startup.
	metaAfter int

	// notReadyPulls makes the first n pulls report ErrNotReady.
	notReadyPulls int

	next   int
	pulls  int
	paused bool
	muted  bool
	volume float64
	pts    float64
	closed bool
}

func newFakeSource(frameCount int, rate media.Rational, duration float64) *fakeSource {
	return &fakeSource{
		frameCount: frameCount,
		frameRate:  rate,
		duration:   duration,
		volume:     1.0,
	}
}

func (s *fakeSource) interval() float64 {
	return s.frameRate.Interval()
}

func (s *fakeSource) GetFrame() (*media.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notReadyPulls > 0 {
		s.notReadyPulls--
		return nil, media.ErrNotReady
	}
	if s.next >= s.frameCount {
		return nil, media.ErrEndOfStream
	}

	pts := float64(s.next) * s.interval()
	frame := &media.Frame{
		Index:    -1,
		PTS:      pts,
		Width:    4,
		Height:   4,
		Pixels:   []byte{0, 1, 2, 3},
		Metadata: s.metadataLocked(),
		Library:  "fake",
	}

	s.next++
	s.pulls++
	s.pts = pts
	return frame, nil
}

func (s *fakeSource) Metadata() media.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadataLocked()
}

func (s *fakeSource) metadataLocked() media.Metadata {
	meta := media.Metadata{
		Path:        "fake.mp4",
		Title:       "fake clip",
		Duration:    s.duration,
		FrameRate:   s.frameRate,
		Width:       4,
		Height:      4,
		PixelFormat: "rgb24",
		Library:     "fake",
	}
	if s.pulls < s.metaAfter {
		meta.FrameRate = media.Rational{}
	}
	return meta
}

func (s *fakeSource) PTS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pts
}

func (s *fakeSource) Seek(timestamp float64, relative bool) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if relative {
		timestamp = s.pts + timestamp
	}
	if timestamp < 0 {
		timestamp = 0
	}

	s.next = int(math.Floor(timestamp/s.interval() + 1e-9))
	if s.next > s.frameCount {
		s.next = s.frameCount
	}
	s.pts = timestamp
	return timestamp, nil
}

func (s *fakeSource) SetPause(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *fakeSource) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *fakeSource) SetMute(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

func (s *fakeSource) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *fakeSource) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

func (s *fakeSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) pullCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
