// ABOUTME: Consumer-facing movie player facade
// ABOUTME: Owns the decoder and stream reader, exposes transport and timing
package movie

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/StimKit/stimkit-go/pkg/clock"
	"github.com/StimKit/stimkit-go/pkg/media"
	"github.com/StimKit/stimkit-go/pkg/status"
)

// DefaultSkipSeconds is the distance Rewind and FastForward jump when
// given a non-positive amount.
const DefaultSkipSeconds = 5.0

var (
	// ErrNotLoaded is returned by transport and timing operations when no
	// decoder is open.
	ErrNotLoaded = errors.New("movie: operation requires a successful call to Load first")

	// ErrNotOpened is returned by Stop when nothing was ever opened.
	ErrNotOpened = errors.New("movie: cannot close stream, not opened yet")

	// ErrBadTimestamp is returned by timing conversions for NaN or
	// infinite inputs.
	ErrBadTimestamp = errors.New("movie: timestamp must be a finite number")
)

// Config holds player configuration. The zero value of every field has
// a usable default.
type Config struct {
	// Open creates the decoder for a path. Required.
	Open media.Opener

	// BufferFrames sets the frame queue capacity (default 1). Under
	// backpressure the consumer may see a frame at most this stale.
	BufferFrames int

	// Clock supplies the experiment time in seconds. Defaults to the
	// process-wide monotonic clock.
	Clock func() float64
}

// Player plays a movie file and exposes frames synchronized to the
// experiment clock. Exactly one reader goroutine runs per loaded
// player; the Player itself is driven from a single caller goroutine
// and is not safe for concurrent use.
type Player struct {
	config Config

	path   string
	source media.Source
	queue  *FrameQueue
	reader *StreamReader

	lastFrame *media.Frame
	metadata  media.Metadata

	state          status.Status
	streamTime     float64
	recordingTime  float64
	recordingBytes int64
}

// NewPlayer creates a player. Load must be called before any transport
// operation.
func NewPlayer(config Config) *Player {
	if config.BufferFrames < 1 {
		config.BufferFrames = 1
	}
	if config.Clock == nil {
		config.Clock = clock.GetTime
	}

	return &Player{
		config:    config,
		lastFrame: media.NullFrame,
		metadata:  media.NullMetadata,
		state:     status.NotStarted,
	}
}

// Load opens a movie file. If a stream is already open it is unloaded
// first, then the decoder is started and the reader goroutine spawned.
func (p *Player) Load(path string) error {
	if p.source != nil {
		if err := p.Unload(); err != nil {
			return err
		}
	}

	p.path = path
	if err := p.Start(); err != nil {
		return err
	}

	p.state = status.NotStarted
	return nil
}

// Start opens the decoder and spawns the stream reader. The decoder is
// muted and unpaused while frames are pulled and discarded purely to
// settle the metadata, then re-paused, rewound to zero and unmuted.
// Playback does not begin until Play is called. Calling Start while a
// reader goroutine is already running is a no-op.
func (p *Player) Start() error {
	if p.readerRunning() {
		return nil
	}
	if p.path == "" {
		return ErrNotLoaded
	}
	if p.config.Open == nil {
		return fmt.Errorf("movie: no opener configured")
	}

	p.lastFrame = media.NullFrame

	src, err := p.config.Open(p.path)
	if err != nil {
		return fmt.Errorf("movie: open %q: %w", p.path, err)
	}

	src.SetMute(true)
	src.SetPause(false)

	for {
		frame, err := src.GetFrame()
		if err != nil && !errors.Is(err, media.ErrNotReady) && !errors.Is(err, media.ErrEndOfStream) {
			src.Close()
			return fmt.Errorf("movie: warm-up pull %q: %w", p.path, err)
		}
		if frame.Valid() || errors.Is(err, media.ErrEndOfStream) {
			break
		}
		time.Sleep(warmupPollInterval)
	}

	src.SetPause(true)
	if _, err := src.Seek(0.0, false); err != nil {
		src.Close()
		return fmt.Errorf("movie: rewind after warm-up: %w", err)
	}
	src.SetMute(false)

	p.source = src
	p.metadata = src.Metadata()
	p.state = status.NotStarted

	// hand the decoder off to the reader goroutine; from here on all
	// decoder calls go through the reader's command channel
	p.queue = NewFrameQueue(p.config.BufferFrames)
	p.reader = NewStreamReader(src, p.queue)
	go p.reader.Run()

	return nil
}

// Unload shuts down the reader, closes the decoder and clears cached
// state.
func (p *Player) Unload() error {
	if p.source == nil {
		return ErrNotLoaded
	}

	if p.reader != nil {
		p.reader.Shutdown()
		p.reader.Join()
		p.reader = nil
	}

	err := p.source.Close()
	p.source = nil
	p.path = ""
	p.queue = nil
	p.lastFrame = media.NullFrame
	p.metadata = media.NullMetadata
	p.state = status.NotStarted
	return err
}

// IsLoaded reports whether a decoder is currently open.
func (p *Player) IsLoaded() bool {
	return p.source != nil
}

// Play starts playback, or resumes it after a pause.
func (p *Player) Play() error {
	if err := p.assertSource(); err != nil {
		return err
	}

	p.reader.Play()
	p.state = status.Playing
	return nil
}

// Pause requests a pause, leaving the last frame current. The returned
// bool reports whether the pause has been confirmed by the reader; this
// implementation signals fire-and-forget and never confirms, so the
// value is always false on success.
func (p *Player) Pause() (bool, error) {
	if err := p.assertSource(); err != nil {
		return false, err
	}

	p.reader.Pause()
	p.state = status.Paused
	return false, nil
}

// Stop shuts down the reader, waits for it to exit, then closes the
// decoder. Once stopped the movie cannot be restarted; it must be
// loaded again. Use Pause if playback may need to resume.
func (p *Player) Stop() error {
	if p.source == nil {
		return ErrNotOpened
	}

	p.reader.Shutdown()
	p.reader.Join() // no timeout; see StreamReader.Join
	p.reader = nil

	err := p.source.Close()
	p.source = nil
	p.state = status.Stopped
	return err
}

// Seek moves playback to an absolute timestamp in seconds. Frames
// decoded before the jump are flushed and the cached frame is reset to
// the null sentinel so stale data is never surfaced. Returns the
// decoder's post-seek presentation timestamp.
func (p *Player) Seek(timestamp float64) (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	if err := checkTimestamp(timestamp); err != nil {
		return 0, err
	}

	var pts float64
	var seekErr error
	p.exec(func(s media.Source) {
		pts, seekErr = s.Seek(timestamp, false)
	})
	if seekErr != nil {
		return 0, fmt.Errorf("movie: seek to %.3fs: %w", timestamp, seekErr)
	}

	if p.queue != nil {
		p.queue.Flush()
	}
	p.lastFrame = media.NullFrame
	if p.reader != nil {
		p.reader.setStreamTime(pts)
	}
	p.streamTime = pts

	return pts, nil
}

// Rewind seeks backwards by the given number of seconds (default 5).
// Returns the post-seek presentation timestamp.
func (p *Player) Rewind(seconds float64) (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	if seconds <= 0 {
		seconds = DefaultSkipSeconds
	}
	return p.Seek(p.PTS() - seconds)
}

// FastForward seeks forwards by the given number of seconds (default
// 5). Returns the post-seek presentation timestamp.
func (p *Player) FastForward(seconds float64) (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	if seconds <= 0 {
		seconds = DefaultSkipSeconds
	}
	return p.Seek(p.PTS() + seconds)
}

// Replay tears the current stream down and reloads the same file. With
// autoStart, playback begins immediately; otherwise Play must be
// called. The trailing Start is a no-op while the reader spawned by
// Load is still running.
func (p *Player) Replay(autoStart bool) error {
	path := p.path

	if err := p.Stop(); err != nil {
		return err
	}
	if err := p.Load(path); err != nil {
		return err
	}
	if autoStart {
		if err := p.Play(); err != nil {
			return err
		}
	}

	return p.Start()
}

// GetMovieFrame returns the movie frame scheduled to be displayed at
// absTime, blocking until the reader has produced one. The newest
// decoded frame is the one scheduled for display; if the reader has
// exited (end of stream or shutdown) the cached frame is returned
// rather than blocking forever.
func (p *Player) GetMovieFrame(absTime float64) (*media.Frame, error) {
	if err := p.assertSource(); err != nil {
		return nil, err
	}

	p.enqueueFrame(true)
	return p.lastFrame, nil
}

// PollMovieFrame is the non-blocking variant of GetMovieFrame: it
// returns the most recent cached frame, which is the same frame again
// if no new one has arrived since the last call.
func (p *Player) PollMovieFrame() (*media.Frame, error) {
	if err := p.assertSource(); err != nil {
		return nil, err
	}

	p.enqueueFrame(false)
	return p.lastFrame, nil
}

// enqueueFrame moves the next entry from the hand-off queue into the
// facade's cache. When block is set it busy-polls the queue with a
// short sleep until an entry arrives or the reader exits. Returns true
// if a new frame was cached.
func (p *Player) enqueueFrame(block bool) bool {
	entry, ok := p.queue.TryGet()
	for block && !ok {
		if !p.readerRunning() {
			return false
		}
		time.Sleep(warmupPollInterval)
		entry, ok = p.queue.TryGet()
	}
	if !ok {
		return false
	}

	p.metadata = entry.Metadata
	p.streamTime = entry.Status.StreamTime
	p.recordingTime = entry.Status.RecordingTime
	p.recordingBytes = entry.Status.RecordingBytes

	frame := entry.Frame
	if interval := entry.Metadata.FrameInterval(); interval > 0 {
		frame.Index = int(math.Floor(frame.PTS/interval + 1e-9))
	}

	// ownership transfers from the queue to the facade, replacing the
	// previous instance
	p.lastFrame = frame
	return true
}

// Metadata returns the most recent stream metadata snapshot.
func (p *Player) Metadata() (media.Metadata, error) {
	if err := p.assertSource(); err != nil {
		return media.NullMetadata, err
	}
	return p.metadata, nil
}

// PTS returns the current movie time in seconds, or -1.0 when no movie
// is loaded. The value tracks the most recently published frame.
func (p *Player) PTS() float64 {
	if p.source == nil {
		return -1.0
	}
	if p.readerRunning() {
		return p.reader.StreamTime()
	}
	return p.source.PTS()
}

// FrameInterval returns the presentation duration of one frame in
// seconds, or 0 when no movie is loaded or the rate is unknown.
func (p *Player) FrameInterval() float64 {
	return p.metadata.FrameInterval()
}

// FrameIndex returns the index of the cached frame. -1 is invalid,
// meaning the movie has not started or the stream has a problem. Only
// guaranteed monotonic for non-seekable sources.
func (p *Player) FrameIndex() int {
	return p.lastFrame.Index
}

// StartAbsTime returns the experiment time in seconds the movie would
// have started at if played continuously from the beginning. Seeking
// and pausing change this value.
func (p *Player) StartAbsTime() (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	return p.config.Clock() - p.PTS(), nil
}

// MovieToAbsTime converts a movie timestamp to experiment time. The
// result is precise to about five decimal places.
func (p *Player) MovieToAbsTime(movieTime float64) (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	if err := checkTimestamp(movieTime); err != nil {
		return 0, err
	}

	start, err := p.StartAbsTime()
	if err != nil {
		return 0, err
	}
	return start + movieTime, nil
}

// AbsToMovieTime converts an experiment timestamp to movie time. A
// negative result means absTime falls before the movie's start.
func (p *Player) AbsToMovieTime(absTime float64) (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	if err := checkTimestamp(absTime); err != nil {
		return 0, err
	}

	start, err := p.StartAbsTime()
	if err != nil {
		return 0, err
	}
	return absTime - start, nil
}

// MovieTimeFromFrameIndex returns the movie time the frame with the
// given index is scheduled to be presented. Negative indices yield
// negative timestamps.
func (p *Player) MovieTimeFromFrameIndex(frameIndex int) (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}
	return float64(frameIndex) * p.metadata.FrameInterval(), nil
}

// FrameIndexFromMovieTime returns the index of the frame that should be
// presented at the given movie time.
func (p *Player) FrameIndexFromMovieTime(movieTime float64) (int, error) {
	if err := p.assertSource(); err != nil {
		return -1, err
	}
	if err := checkTimestamp(movieTime); err != nil {
		return -1, err
	}

	interval := p.metadata.FrameInterval()
	if interval <= 0 {
		return -1, nil
	}
	return int(math.Floor(movieTime/interval + 1e-9)), nil
}

// PercentComplete returns how much of the movie has played, 0.0 to
// 100.0.
func (p *Player) PercentComplete() (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}

	duration := p.metadata.Duration
	if duration <= 0 {
		return 0, nil
	}
	return (p.PTS() / duration) * 100.0, nil
}

// SetVolume sets the soundtrack volume, clamped to [0.0, 1.0].
func (p *Player) SetVolume(volume float64) error {
	if err := p.assertSource(); err != nil {
		return err
	}

	clamped := clampVolume(volume)
	p.exec(func(s media.Source) {
		s.SetVolume(clamped)
	})
	return nil
}

// Volume returns the current soundtrack volume.
func (p *Player) Volume() (float64, error) {
	if err := p.assertSource(); err != nil {
		return 0, err
	}

	var v float64
	p.exec(func(s media.Source) {
		v = s.Volume()
	})
	return v, nil
}

// VolumeUp raises the volume by amount and returns the new volume,
// clamped to [0.0, 1.0].
func (p *Player) VolumeUp(amount float64) (float64, error) {
	v, err := p.Volume()
	if err != nil {
		return 0, err
	}
	if err := p.SetVolume(v + amount); err != nil {
		return 0, err
	}
	return p.Volume()
}

// VolumeDown lowers the volume by amount and returns the new volume,
// clamped to [0.0, 1.0].
func (p *Player) VolumeDown(amount float64) (float64, error) {
	return p.VolumeUp(-amount)
}

// SetMuted mutes or unmutes the soundtrack.
func (p *Player) SetMuted(muted bool) error {
	if err := p.assertSource(); err != nil {
		return err
	}

	p.exec(func(s media.Source) {
		s.SetMute(muted)
	})
	return nil
}

// Muted reports whether the soundtrack is muted.
func (p *Player) Muted() (bool, error) {
	if err := p.assertSource(); err != nil {
		return false, err
	}

	var m bool
	p.exec(func(s media.Source) {
		m = s.Muted()
	})
	return m, nil
}

// Status returns the player status. Finished is reported once the
// reader has run to end-of-stream on its own, as opposed to Stopped
// after an explicit Stop.
func (p *Player) Status() status.Status {
	if p.reader != nil && p.reader.Finished() {
		return status.Finished
	}
	return p.state
}

// IsPlaying reports whether the movie is presently playing.
func (p *Player) IsPlaying() bool {
	return p.Status() == status.Playing
}

// IsNotStarted reports whether the movie is loaded but playback has not
// been requested yet.
func (p *Player) IsNotStarted() bool {
	return p.Status() == status.NotStarted
}

// IsPaused reports whether playback is paused.
func (p *Player) IsPaused() bool {
	return p.Status() == status.Paused
}

// IsStopped reports whether the movie was stopped with Stop.
func (p *Player) IsStopped() bool {
	return p.Status() == status.Stopped
}

// IsFinished reports whether the movie ran to its end.
func (p *Player) IsFinished() bool {
	return p.Status() == status.Finished
}

// IsSeekable reports whether random access is allowed for the stream.
// When false, frame indices increase monotonically.
func (p *Player) IsSeekable() bool {
	return true
}

// StreamTime returns the stream time reported with the cached frame.
func (p *Player) StreamTime() float64 {
	return p.streamTime
}

// assertSource fails with ErrNotLoaded when no decoder is open. The
// player remains usable afterwards; the caller may still Load.
func (p *Player) assertSource() error {
	if p.source == nil {
		return ErrNotLoaded
	}
	return nil
}

// exec routes a decoder call through the reader's command channel when
// the reader goroutine is running, preserving the single-owner rule.
func (p *Player) exec(fn func(media.Source)) {
	if p.readerRunning() {
		p.reader.Exec(fn)
		return
	}
	fn(p.source)
}

// readerRunning reports whether the reader goroutine has started and
// not yet exited.
func (p *Player) readerRunning() bool {
	if p.reader == nil {
		return false
	}
	select {
	case <-p.reader.Done():
		return false
	default:
		return true
	}
}

// checkTimestamp rejects NaN and infinite timestamps.
func checkTimestamp(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return ErrBadTimestamp
	}
	return nil
}

// clampVolume clamps a volume to [0.0, 1.0].
func clampVolume(v float64) float64 {
	return math.Max(math.Min(v, 1.0), 0.0)
}
