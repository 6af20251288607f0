// ABOUTME: Tests for the player facade
// ABOUTME: Covers loading, transport, timing conversions and volume
package movie

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/StimKit/stimkit-go/pkg/media"
)

// fakeOpener hands out fresh fake sources and counts how many times the
// player asked for one.
type fakeOpener struct {
	opens int
	last  *fakeSource
	build func() *fakeSource
}

func (o *fakeOpener) open(path string) (media.Source, error) {
	o.opens++
	o.last = o.build()
	return o.last, nil
}

func newTestPlayer(frames int, rate media.Rational, duration float64) (*Player, *fakeOpener) {
	opener := &fakeOpener{
		build: func() *fakeSource {
			return newFakeSource(frames, rate, duration)
		},
	}
	player := NewPlayer(Config{
		Open:  opener.open,
		Clock: func() float64 { return 42.0 },
	})
	return player, opener
}

func TestStopBeforeLoad(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Stop(); !errors.Is(err, ErrNotOpened) {
		t.Errorf("expected ErrNotOpened, got %v", err)
	}
	if opener.opens != 0 {
		t.Errorf("expected no decoder opens, got %d", opener.opens)
	}
}

func TestTransportBeforeLoad(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Play(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Play: expected ErrNotLoaded, got %v", err)
	}
	if _, err := p.Pause(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Pause: expected ErrNotLoaded, got %v", err)
	}
	if _, err := p.Seek(1.0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Seek: expected ErrNotLoaded, got %v", err)
	}
	if _, err := p.GetMovieFrame(0.0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("GetMovieFrame: expected ErrNotLoaded, got %v", err)
	}
	if _, err := p.Metadata(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Metadata: expected ErrNotLoaded, got %v", err)
	}
	if err := p.SetVolume(0.5); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("SetVolume: expected ErrNotLoaded, got %v", err)
	}
	if _, err := p.StartAbsTime(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("StartAbsTime: expected ErrNotLoaded, got %v", err)
	}
	if got := p.PTS(); got != -1.0 {
		t.Errorf("PTS: expected -1.0 without a movie, got %v", got)
	}
}

func TestLoadPopulatesMetadata(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if !p.IsLoaded() {
		t.Error("expected IsLoaded after Load")
	}
	if !p.IsNotStarted() {
		t.Errorf("expected NotStarted after Load, got %v", p.Status())
	}
	if opener.opens != 1 {
		t.Errorf("expected a single decoder open, got %d", opener.opens)
	}

	meta, err := p.Metadata()
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Duration != 10.0 {
		t.Errorf("expected duration 10.0, got %v", meta.Duration)
	}
	if got, want := p.FrameInterval(), 1.0/30.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("expected frame interval %v, got %v", want, got)
	}
	if idx, _ := p.FrameIndexFromMovieTime(5.0); idx != 150 {
		t.Errorf("expected frame 150 at 5.0s, got %d", idx)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if opener.opens != 1 {
		t.Errorf("expected Start while running to not reopen, got %d opens", opener.opens)
	}
}

func TestPlayDeliversFrames(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !p.IsPlaying() {
		t.Errorf("expected Playing, got %v", p.Status())
	}

	frame, err := p.GetMovieFrame(42.0)
	if err != nil {
		t.Fatalf("GetMovieFrame: %v", err)
	}
	if !frame.Valid() {
		t.Fatal("expected a valid frame")
	}
	if frame.Index != 0 {
		t.Errorf("expected first frame index 0, got %d", frame.Index)
	}
	if p.FrameIndex() != frame.Index {
		t.Errorf("FrameIndex %d does not match cached frame %d", p.FrameIndex(), frame.Index)
	}
}

func TestPauseIsFireAndForget(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	confirmed, err := p.Pause()
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if confirmed {
		t.Error("expected Pause to report unconfirmed")
	}
	if !p.IsPaused() {
		t.Errorf("expected Paused, got %v", p.Status())
	}
}

func TestSeekInvalidatesCachedFrame(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, err := p.GetMovieFrame(42.0); err != nil {
		t.Fatalf("GetMovieFrame: %v", err)
	}
	if _, err := p.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	pts, err := p.Seek(5.0)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if pts != 5.0 {
		t.Errorf("expected seek to land on 5.0, got %v", pts)
	}
	if p.FrameIndex() != -1 {
		t.Errorf("expected cached frame invalidated after seek, got index %d", p.FrameIndex())
	}
	if got := p.PTS(); got != 5.0 {
		t.Errorf("expected PTS 5.0 after seek, got %v", got)
	}
}

func TestSeekRejectsNonFiniteTimestamps(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	for _, ts := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := p.Seek(ts); !errors.Is(err, ErrBadTimestamp) {
			t.Errorf("Seek(%v): expected ErrBadTimestamp, got %v", ts, err)
		}
	}
}

func TestRewindAndFastForward(t *testing.T) {
	p, _ := newTestPlayer(600, media.Rational{Num: 30, Den: 1}, 20.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if _, err := p.Seek(10.0); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	pts, err := p.FastForward(0) // non-positive amount uses the default
	if err != nil {
		t.Fatalf("FastForward: %v", err)
	}
	if pts != 10.0+DefaultSkipSeconds {
		t.Errorf("expected pts %v, got %v", 10.0+DefaultSkipSeconds, pts)
	}

	pts, err = p.Rewind(2.0)
	if err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if pts != 13.0 {
		t.Errorf("expected pts 13.0, got %v", pts)
	}
}

func TestPercentComplete(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if _, err := p.Seek(5.0); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	pct, err := p.PercentComplete()
	if err != nil {
		t.Fatalf("PercentComplete: %v", err)
	}
	if math.Abs(pct-50.0) > 1e-9 {
		t.Errorf("expected 50%% complete, got %v", pct)
	}
}

func TestTimingConversionsAreInverses(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	for _, movieTime := range []float64{0.0, 0.5, 3.25, 9.999} {
		abs, err := p.MovieToAbsTime(movieTime)
		if err != nil {
			t.Fatalf("MovieToAbsTime(%v): %v", movieTime, err)
		}
		back, err := p.AbsToMovieTime(abs)
		if err != nil {
			t.Fatalf("AbsToMovieTime(%v): %v", abs, err)
		}
		if math.Abs(back-movieTime) > 1e-5 {
			t.Errorf("roundtrip of %v drifted to %v", movieTime, back)
		}
	}

	start, err := p.StartAbsTime()
	if err != nil {
		t.Fatalf("StartAbsTime: %v", err)
	}
	// the injected clock is pinned to 42.0 and nothing has played yet
	if math.Abs(start-42.0) > 1e-9 {
		t.Errorf("expected start abs time 42.0, got %v", start)
	}
}

func TestFrameIndexRoundtrip(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	for _, idx := range []int{0, 1, 7, 29, 150, 299} {
		movieTime, err := p.MovieTimeFromFrameIndex(idx)
		if err != nil {
			t.Fatalf("MovieTimeFromFrameIndex(%d): %v", idx, err)
		}
		back, err := p.FrameIndexFromMovieTime(movieTime)
		if err != nil {
			t.Fatalf("FrameIndexFromMovieTime(%v): %v", movieTime, err)
		}
		if back != idx {
			t.Errorf("index %d roundtripped to %d via %v", idx, back, movieTime)
		}
	}
}

func TestVolumeClamp(t *testing.T) {
	p, _ := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.SetVolume(1.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if v, _ := p.Volume(); v != 1.0 {
		t.Errorf("expected volume clamped to 1.0, got %v", v)
	}

	if err := p.SetVolume(-0.2); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if v, _ := p.Volume(); v != 0.0 {
		t.Errorf("expected volume clamped to 0.0, got %v", v)
	}

	if v, _ := p.VolumeUp(0.25); v != 0.25 {
		t.Errorf("expected volume 0.25 after VolumeUp, got %v", v)
	}
	if v, _ := p.VolumeDown(1.0); v != 0.0 {
		t.Errorf("expected volume floor 0.0 after VolumeDown, got %v", v)
	}
}

func TestMute(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	// the warm-up mutes temporarily but must hand back an unmuted stream
	if m, _ := p.Muted(); m {
		t.Error("expected stream unmuted after Load")
	}

	if err := p.SetMuted(true); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if m, _ := p.Muted(); !m {
		t.Error("expected stream muted")
	}
	if !opener.last.Muted() {
		t.Error("expected mute to reach the decoder")
	}
}

func TestStopClosesDecoder(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if !p.IsStopped() {
		t.Errorf("expected Stopped, got %v", p.Status())
	}
	if !opener.last.isClosed() {
		t.Error("expected decoder closed by Stop")
	}
	if err := p.Play(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected Play after Stop to fail with ErrNotLoaded, got %v", err)
	}
}

func TestReplayReopensSameFile(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Replay(false); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	defer p.Stop()

	if opener.opens != 2 {
		t.Errorf("expected 2 decoder opens after Replay, got %d", opener.opens)
	}
	if !p.IsNotStarted() {
		t.Errorf("expected NotStarted after Replay without autostart, got %v", p.Status())
	}

	if err := p.Replay(true); err != nil {
		t.Fatalf("Replay autostart: %v", err)
	}
	if !p.IsPlaying() {
		t.Errorf("expected Playing after Replay with autostart, got %v", p.Status())
	}
}

func TestGetMovieFrameAfterEndOfStream(t *testing.T) {
	p, _ := newTestPlayer(3, media.Rational{Num: 100, Den: 1}, 0.03)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !p.IsFinished() {
		if time.Now().After(deadline) {
			t.Fatal("movie never finished")
		}
		if _, err := p.GetMovieFrame(42.0); err != nil {
			t.Fatalf("GetMovieFrame: %v", err)
		}
	}

	// the reader has exited; a blocking fetch must fall back to the
	// cached frame instead of waiting forever
	frame, err := p.GetMovieFrame(42.0)
	if err != nil {
		t.Fatalf("GetMovieFrame after finish: %v", err)
	}
	if !frame.Valid() {
		t.Error("expected the last decoded frame after finish")
	}
	if frame.Index != 2 {
		t.Errorf("expected final frame index 2, got %d", frame.Index)
	}
}

func TestFramePTSNeverGoesBackwards(t *testing.T) {
	p, _ := newTestPlayer(50, media.Rational{Num: 1000, Den: 1}, 0.05)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Stop()

	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	last := -1.0
	deadline := time.Now().Add(2 * time.Second)
	for !p.IsFinished() {
		if time.Now().After(deadline) {
			t.Fatal("movie never finished")
		}
		frame, err := p.GetMovieFrame(42.0)
		if err != nil {
			t.Fatalf("GetMovieFrame: %v", err)
		}
		if !frame.Valid() {
			continue
		}
		if frame.PTS < last {
			t.Fatalf("pts went backwards: %v after %v", frame.PTS, last)
		}
		last = frame.PTS
	}
}

func TestUnloadClearsState(t *testing.T) {
	p, opener := newTestPlayer(300, media.Rational{Num: 30, Den: 1}, 10.0)

	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	if p.IsLoaded() {
		t.Error("expected not loaded after Unload")
	}
	if !opener.last.isClosed() {
		t.Error("expected decoder closed by Unload")
	}
	if p.FrameIndex() != -1 {
		t.Errorf("expected null frame after Unload, got index %d", p.FrameIndex())
	}
	if err := p.Unload(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected second Unload to fail with ErrNotLoaded, got %v", err)
	}
}
