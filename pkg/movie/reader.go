// ABOUTME: Background stream reader goroutine
// ABOUTME: Pulls frames from the decoder at a dynamically estimated rate
package movie

import (
	"errors"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/StimKit/stimkit-go/pkg/media"
	"github.com/StimKit/stimkit-go/pkg/status"
)

// warmupPollInterval is the polling cadence used before the stream's
// own frame rate is known, kept short to minimize startup latency.
const warmupPollInterval = time.Millisecond

// StreamReader continuously pulls frames from a media source and
// publishes them into a FrameQueue. The polling cadence is recomputed
// from stream metadata so CPU load tracks the actual content rate.
//
// Transport signals are level-triggered: the most recent play/pause
// request wins, and shutdown is sticky. The reader owns the source from
// the moment Run starts until Run returns; other goroutines reach the
// source only through Exec.
type StreamReader struct {
	source media.Source
	queue  *FrameQueue

	playing  atomic.Bool // level-triggered transport request, last write wins
	stop     atomic.Bool // sticky shutdown request
	ready    atomic.Bool
	finished atomic.Bool

	streamTimeBits atomic.Uint64

	cmds chan command
	done chan struct{}
}

// command is a deferred source call issued by the facade; see Exec.
type command struct {
	fn   func(media.Source)
	done chan struct{}
}

// NewStreamReader creates a reader for the given source and queue. Call
// Run on its own goroutine to start it.
func NewStreamReader(source media.Source, queue *FrameQueue) *StreamReader {
	return &StreamReader{
		source: source,
		queue:  queue,
		cmds:   make(chan command, 8),
		done:   make(chan struct{}),
	}
}

// Run is the reader main loop. It returns once a shutdown has been
// requested or the stream ends.
func (r *StreamReader) Run() {
	defer close(r.done)

	if r.source == nil {
		return
	}
	defer r.ready.Store(false)

	pollInterval := warmupPollInterval
	flag := status.NotStarted

	for flag != status.Stopped {
		r.drainCommands()

		if flag == status.NotStarted {
			// one-time warm start, never re-entered
			r.source.SetPause(false)
			flag = status.Playing
			continue
		}

		if r.playing.Load() {
			flag = status.Playing
		} else {
			flag = status.Paused
		}

		switch flag {
		case status.Playing:
			if r.source.Paused() {
				r.source.SetPause(false)
			}

			frame, err := r.source.GetFrame()
			switch {
			case errors.Is(err, media.ErrNotReady) || (err == nil && !frame.Valid()):
				r.sleep(pollInterval)

			case err != nil && !errors.Is(err, media.ErrEndOfStream):
				log.Printf("movie: decoder error, stopping stream: %v", err)
				flag = status.Stopping

			default:
				r.ready.Store(true)

				// metadata is only trustworthy once a frame came back
				meta := r.source.Metadata()
				if meta.FrameRate.Valid() {
					pollInterval = time.Duration(meta.FrameInterval() * float64(time.Second))

					if frame.Valid() {
						r.setStreamTime(frame.PTS)
						r.queue.TryPut(Entry{
							Metadata: meta,
							Frame:    frame,
							Status: media.StreamStatus{
								Status:     status.Playing,
								StreamTime: frame.PTS,
							},
						}) // dropped silently when the queue is full
					}
				}
				// an invalid frame rate means metadata has not settled
				// yet; nothing is published this cycle

				if errors.Is(err, media.ErrEndOfStream) {
					r.finished.Store(true)
					flag = status.Stopping
				} else {
					r.sleep(pollInterval)
				}
			}

		case status.Paused:
			if !r.source.Paused() {
				r.source.SetPause(true)
			}
			r.sleep(warmupPollInterval)
		}

		if r.stop.Load() || flag == status.Stopping {
			flag = status.Stopped
		}
	}
}

// Play requests playback. Level-triggered; overrides a pending pause.
func (r *StreamReader) Play() {
	r.playing.Store(true)
}

// Pause requests a pause. Level-triggered; overrides a pending play.
func (r *StreamReader) Pause() {
	r.playing.Store(false)
}

// Shutdown requests the reader to exit. The request is sticky and is
// honored on the next loop iteration; callers must Join before touching
// the source again.
func (r *StreamReader) Shutdown() {
	r.stop.Store(true)
}

// Join blocks until the reader goroutine has exited. There is no
// timeout: a reader stuck inside a decoder call blocks Join until the
// call returns.
func (r *StreamReader) Join() {
	<-r.done
}

// Done returns a channel closed when the reader goroutine exits.
func (r *StreamReader) Done() <-chan struct{} {
	return r.done
}

// IsReady reports whether at least one frame has been pulled since the
// reader started. Cleared when the loop exits.
func (r *StreamReader) IsReady() bool {
	return r.ready.Load()
}

// Finished reports whether the reader exited because the stream ran to
// its end, as opposed to being shut down.
func (r *StreamReader) Finished() bool {
	return r.finished.Load()
}

// PlayRequested reports the current level of the play/pause signal.
func (r *StreamReader) PlayRequested() bool {
	return r.playing.Load()
}

// StreamTime returns the presentation timestamp of the most recently
// published frame in seconds.
func (r *StreamReader) StreamTime() float64 {
	return math.Float64frombits(r.streamTimeBits.Load())
}

func (r *StreamReader) setStreamTime(t float64) {
	r.streamTimeBits.Store(math.Float64bits(t))
}

// Exec runs fn against the source from within the reader loop, keeping
// the single-owner rule intact. It blocks until fn has run. If the
// reader has already exited, source ownership has reverted to the
// caller and fn runs directly.
func (r *StreamReader) Exec(fn func(media.Source)) {
	cmd := command{fn: fn, done: make(chan struct{})}

	select {
	case r.cmds <- cmd:
	case <-r.done:
		fn(r.source)
		return
	}

	select {
	case <-cmd.done:
	case <-r.done:
		// the reader exited with the command still queued
		select {
		case <-cmd.done:
		default:
			fn(r.source)
		}
	}
}

// drainCommands runs all queued facade commands.
func (r *StreamReader) drainCommands() {
	for {
		select {
		case cmd := <-r.cmds:
			cmd.fn(r.source)
			close(cmd.done)
		default:
			return
		}
	}
}

// sleep waits for d but wakes early to serve a facade command.
func (r *StreamReader) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case cmd := <-r.cmds:
		cmd.fn(r.source)
		close(cmd.done)
	case <-timer.C:
	}
}
