// ABOUTME: Movie soundtrack playback
// ABOUTME: Pumps ffmpeg-decoded PCM into an audio output device
package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"github.com/StimKit/stimkit-go/pkg/audio"
	"github.com/StimKit/stimkit-go/pkg/audio/decode"
	"github.com/StimKit/stimkit-go/pkg/audio/output"
)

const (
	soundtrackRate     = 48000
	soundtrackChannels = 2
	soundtrackChunk    = 8192 // bytes per pump iteration
)

// soundtrack plays a movie's audio track with a second ffmpeg process
// decoding to raw PCM. The pump goroutine pushes samples into the
// output device; backpressure from the device paces decoding.
type soundtrack struct {
	ffmpeg string
	path   string
	out    output.Output

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	offset  float64
	paused  bool
	stopped bool
	gen     int // invalidates stale pump goroutines
}

func newSoundtrack(ffmpegPath, path string, out output.Output) *soundtrack {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &soundtrack{
		ffmpeg: ffmpegPath,
		path:   path,
		out:    out,
		paused: true,
	}
}

// setPause starts or halts soundtrack playback.
func (t *soundtrack) setPause(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.paused = paused
	if !paused && t.cmd == nil && !t.stopped {
		if err := t.startLocked(); err != nil {
			log.Printf("ffmpeg: soundtrack start failed: %v", err)
		}
	}
}

// seek restarts the audio process at a new offset.
func (t *soundtrack) seek(timestamp float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.offset = timestamp
	if !t.paused && !t.stopped {
		if err := t.startLocked(); err != nil {
			log.Printf("ffmpeg: soundtrack restart failed: %v", err)
		}
	}
}

// stop halts playback permanently.
func (t *soundtrack) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.stopLocked()
}

// startLocked spawns the audio decode process and its pump goroutine.
// Caller holds t.mu.
func (t *soundtrack) startLocked() error {
	if err := t.out.Open(soundtrackRate, soundtrackChannels, 16); err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}

	args := []string{"-v", "error"}
	if t.offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.6f", t.offset))
	}
	args = append(args,
		"-i", t.path,
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", soundtrackRate),
		"-ac", fmt.Sprintf("%d", soundtrackChannels),
		"pipe:1",
	)

	cmd := exec.Command(t.ffmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	t.cmd = cmd
	t.stdout = stdout
	t.gen++

	go t.pump(stdout, t.gen)
	return nil
}

// stopLocked kills the current audio process. Caller holds t.mu.
func (t *soundtrack) stopLocked() {
	if t.cmd == nil {
		return
	}
	t.stdout.Close()
	t.cmd.Process.Kill()
	t.cmd.Wait()
	t.cmd = nil
	t.stdout = nil
	t.gen++ // orphans the pump goroutine
}

// pump moves decoded PCM from the ffmpeg pipe into the output device
// until the stream ends or the generation changes.
func (t *soundtrack) pump(stdout io.Reader, gen int) {
	dec, err := decode.NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: soundtrackRate,
		Channels:   soundtrackChannels,
		BitDepth:   16,
	})
	if err != nil {
		log.Printf("ffmpeg: soundtrack decoder: %v", err)
		return
	}
	defer dec.Close()

	buf := make([]byte, soundtrackChunk)
	for {
		if !t.current(gen) {
			return
		}
		if t.pausedNow() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		n, err := io.ReadFull(stdout, buf)
		if n > 0 {
			samples, decErr := dec.Decode(buf[:n])
			if decErr != nil {
				log.Printf("ffmpeg: soundtrack decode: %v", decErr)
				return
			}
			if writeErr := t.out.Write(samples); writeErr != nil {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				log.Printf("ffmpeg: soundtrack read: %v", err)
			}
			return
		}
	}
}

func (t *soundtrack) current(gen int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen && !t.stopped
}

func (t *soundtrack) pausedNow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}
