// ABOUTME: Sound stimulus player
// ABOUTME: Pumps a stimulus source into an audio output on its own goroutine
package sound

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/StimKit/stimkit-go/pkg/audio/output"
	"github.com/StimKit/stimkit-go/pkg/status"
)

// pumpChunkMillis is the amount of audio moved per pump iteration.
const pumpChunkMillis = 100

// Config holds player configuration.
type Config struct {
	// Output is the playback device. Required.
	Output output.Output

	// Open creates a source for a path. Defaults to NewSource.
	Open func(path string) (Source, error)
}

// Player plays one sound stimulus at a time. Like the movie player it
// is driven from a single caller goroutine; only the pump runs
// concurrently.
type Player struct {
	config Config

	source Source
	title  string

	playing  atomic.Bool
	stop     atomic.Bool
	finished atomic.Bool
	done     chan struct{}

	state status.Status
}

// NewPlayer creates a sound player.
func NewPlayer(config Config) *Player {
	if config.Open == nil {
		config.Open = NewSource
	}
	return &Player{
		config: config,
		state:  status.NotStarted,
	}
}

// Load opens a stimulus file, replacing any current one.
func (p *Player) Load(path string) error {
	if p.config.Output == nil {
		return fmt.Errorf("sound: no output configured")
	}
	if p.source != nil {
		if err := p.Stop(); err != nil {
			return err
		}
	}

	src, err := p.config.Open(path)
	if err != nil {
		return fmt.Errorf("sound: open %q: %w", path, err)
	}
	if err := p.config.Output.Open(src.SampleRate(), src.Channels(), 16); err != nil {
		src.Close()
		return fmt.Errorf("sound: open output: %w", err)
	}

	p.source = src
	p.title = src.Title()
	p.playing.Store(false)
	p.stop.Store(false)
	p.finished.Store(false)
	p.done = make(chan struct{})
	p.state = status.NotStarted

	go p.pump()
	return nil
}

// pump moves samples from the source to the output until the stimulus
// ends or Stop is called.
func (p *Player) pump() {
	defer close(p.done)

	chunk := p.source.SampleRate() * p.source.Channels() * pumpChunkMillis / 1000
	samples := make([]int32, chunk)

	for !p.stop.Load() {
		if !p.playing.Load() {
			time.Sleep(time.Millisecond)
			continue
		}

		n, err := p.source.Read(samples)
		if n > 0 {
			if writeErr := p.config.Output.Write(samples[:n]); writeErr != nil {
				return
			}
		}
		if err == io.EOF {
			p.finished.Store(true)
			return
		}
		if err != nil {
			return
		}
	}
}

// Play starts or resumes playback.
func (p *Player) Play() error {
	if p.source == nil {
		return fmt.Errorf("sound: no stimulus loaded")
	}
	p.playing.Store(true)
	p.state = status.Playing
	return nil
}

// Pause halts playback, keeping the position.
func (p *Player) Pause() error {
	if p.source == nil {
		return fmt.Errorf("sound: no stimulus loaded")
	}
	p.playing.Store(false)
	p.state = status.Paused
	return nil
}

// Stop ends playback and closes the source. The stimulus must be
// loaded again to replay.
func (p *Player) Stop() error {
	if p.source == nil {
		return fmt.Errorf("sound: no stimulus loaded")
	}

	p.stop.Store(true)
	<-p.done

	err := p.source.Close()
	p.source = nil
	p.state = status.Stopped
	return err
}

// SetVolume sets the playback volume, clamped to [0.0, 1.0].
func (p *Player) SetVolume(volume float64) {
	p.config.Output.SetVolume(volume)
}

// Volume returns the playback volume.
func (p *Player) Volume() float64 {
	return p.config.Output.Volume()
}

// Title returns the loaded stimulus title, empty when nothing is
// loaded.
func (p *Player) Title() string {
	if p.source == nil {
		return ""
	}
	return p.title
}

// Status returns the player status.
func (p *Player) Status() status.Status {
	if p.finished.Load() {
		return status.Finished
	}
	return p.state
}

// IsPlaying reports whether the stimulus is presently playing.
func (p *Player) IsPlaying() bool {
	return p.Status() == status.Playing
}

// IsFinished reports whether the stimulus ran to its end.
func (p *Player) IsFinished() bool {
	return p.Status() == status.Finished
}
