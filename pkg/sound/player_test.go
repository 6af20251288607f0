// ABOUTME: Tests for the sound stimulus player
// ABOUTME: Uses an in-memory source and output, no audio device needed
package sound

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/StimKit/stimkit-go/pkg/status"
)

// fakeSoundSource serves a fixed number of samples then EOF.
type fakeSoundSource struct {
	mu        sync.Mutex
	total     int
	served    int
	closed    bool
	failAfter int // samples after which Read errors, 0 disables
}

func (s *fakeSoundSource) Read(samples []int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served >= s.total {
		return 0, io.EOF
	}
	n := len(samples)
	if s.served+n > s.total {
		n = s.total - s.served
	}
	for i := 0; i < n; i++ {
		samples[i] = int32(s.served + i)
	}
	s.served += n
	if s.served >= s.total {
		return n, io.EOF
	}
	return n, nil
}

func (s *fakeSoundSource) SampleRate() int { return 48000 }
func (s *fakeSoundSource) Channels() int   { return 2 }
func (s *fakeSoundSource) Title() string   { return "fake stimulus" }
func (s *fakeSoundSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSoundSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeOutput counts samples written and mimics the oto volume clamp.
type fakeOutput struct {
	mu      sync.Mutex
	written int
	volume  float64
	muted   bool
	opened  bool
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{volume: 1.0}
}

func (o *fakeOutput) Open(sampleRate, channels, bitDepth int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = true
	return nil
}

func (o *fakeOutput) Write(samples []int32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.written += len(samples)
	return nil
}

func (o *fakeOutput) Close() error { return nil }

func (o *fakeOutput) SetVolume(volume float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if volume < 0.0 {
		volume = 0.0
	}
	if volume > 1.0 {
		volume = 1.0
	}
	o.volume = volume
}

func (o *fakeOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

func (o *fakeOutput) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
}

func (o *fakeOutput) Muted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

func (o *fakeOutput) samplesWritten() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.written
}

func newSoundTestPlayer(total int) (*Player, *fakeSoundSource, *fakeOutput) {
	src := &fakeSoundSource{total: total}
	out := newFakeOutput()
	p := NewPlayer(Config{
		Output: out,
		Open:   func(path string) (Source, error) { return src, nil },
	})
	return p, src, out
}

func TestPlayRunsToCompletion(t *testing.T) {
	p, src, out := newSoundTestPlayer(20000)

	if err := p.Load("beep.wav"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Title() != "fake stimulus" {
		t.Errorf("expected title from source, got %q", p.Title())
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !p.IsFinished() {
		if time.Now().After(deadline) {
			t.Fatal("stimulus never finished")
		}
		time.Sleep(time.Millisecond)
	}

	if got := out.samplesWritten(); got != 20000 {
		t.Errorf("expected all 20000 samples written, got %d", got)
	}
	if p.Status() != status.Finished {
		t.Errorf("expected Finished, got %v", p.Status())
	}
	_ = src
}

func TestPauseHoldsPosition(t *testing.T) {
	p, _, out := newSoundTestPlayer(1 << 30)

	if err := p.Load("beep.wav"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := p.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if p.Status() != status.Paused {
		t.Errorf("expected Paused, got %v", p.Status())
	}

	// the pump processes at most one chunk after the pause lands
	time.Sleep(10 * time.Millisecond)
	before := out.samplesWritten()
	time.Sleep(20 * time.Millisecond)
	if after := out.samplesWritten(); after != before {
		t.Errorf("expected no writes while paused, got %d new samples", after-before)
	}
}

func TestStopClosesSource(t *testing.T) {
	p, src, _ := newSoundTestPlayer(1 << 30)

	if err := p.Load("beep.wav"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if !src.isClosed() {
		t.Error("expected source closed by Stop")
	}
	if p.Status() != status.Stopped {
		t.Errorf("expected Stopped, got %v", p.Status())
	}
	if err := p.Play(); err == nil {
		t.Error("expected Play after Stop to fail")
	}
}

func TestVolumeDelegatesToOutput(t *testing.T) {
	p, _, out := newSoundTestPlayer(100)

	if err := p.Load("beep.wav"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	p.SetVolume(1.5)
	if got := p.Volume(); got != 1.0 {
		t.Errorf("expected volume clamped to 1.0, got %v", got)
	}
	p.SetVolume(0.3)
	if got := out.Volume(); got != 0.3 {
		t.Errorf("expected volume 0.3 on output, got %v", got)
	}
}

func TestPlayWithoutLoad(t *testing.T) {
	p := NewPlayer(Config{Output: newFakeOutput()})
	if err := p.Play(); err == nil {
		t.Error("expected error playing without a loaded stimulus")
	}
}
