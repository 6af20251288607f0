// ABOUTME: Movie decoder backed by an external ffmpeg process
// ABOUTME: Reads raw rgb24 frames from a pipe, seeks by restarting ffmpeg
package ffmpeg

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/StimKit/stimkit-go/pkg/audio/output"
	"github.com/StimKit/stimkit-go/pkg/media"
)

// Options configures the ffmpeg decoder. The zero value is usable and
// finds the tools on PATH.
type Options struct {
	// FFmpegPath overrides the ffmpeg binary location.
	FFmpegPath string

	// FFprobePath overrides the ffprobe binary location.
	FFprobePath string

	// Audio, when set, plays the movie soundtrack through the given
	// output device. Nil disables soundtrack playback.
	Audio output.Output
}

// Source decodes a movie with an ffmpeg child process writing raw rgb24
// frames to a pipe. Seeking restarts the process with an input offset,
// which is how ffmpeg itself implements fast seeks.
//
// Source is not safe for concurrent use; see media.Source.
type Source struct {
	opts Options
	meta media.Metadata

	cmd    *exec.Cmd
	stdout io.ReadCloser

	soundtrack *soundtrack

	frameSize int
	offset    float64 // movie time the current process started at
	frames    int     // frames read from the current process
	pts       float64
	paused    bool
	eof       bool
}

// Open probes path and prepares a decoder. The first ffmpeg process is
// started lazily on the first GetFrame call.
func Open(path string) (media.Source, error) {
	return OpenWith(path, Options{})
}

// OpenWith is Open with explicit options.
func OpenWith(path string, opts Options) (media.Source, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}

	meta, err := Probe(opts.FFprobePath, path)
	if err != nil {
		return nil, err
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("ffmpeg: %q has no usable video dimensions", path)
	}

	s := &Source{
		opts:      opts,
		meta:      meta,
		frameSize: meta.Width * meta.Height * 3, // rgb24
	}
	if opts.Audio != nil {
		s.soundtrack = newSoundtrack(opts.FFmpegPath, path, opts.Audio)
	}
	return s, nil
}

// start spawns an ffmpeg process decoding from the current offset.
func (s *Source) start() error {
	args := []string{"-v", "error"}
	if s.offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.6f", s.offset))
	}
	args = append(args,
		"-i", s.meta.Path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-an",
		"pipe:1",
	)

	cmd := exec.Command(s.opts.FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.frames = 0
	s.eof = false
	return nil
}

// stopProcess kills the current ffmpeg process, if any.
func (s *Source) stopProcess() {
	if s.cmd == nil {
		return
	}
	s.stdout.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
}

// GetFrame returns the next decoded frame. While paused it reports
// media.ErrNotReady without consuming input, which keeps the movie
// position frozen.
func (s *Source) GetFrame() (*media.Frame, error) {
	if s.paused {
		return nil, media.ErrNotReady
	}
	if s.eof {
		return nil, media.ErrEndOfStream
	}
	if s.cmd == nil {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	pixels := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.stdout, pixels); err != nil {
		s.eof = true
		s.stopProcess()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, media.ErrEndOfStream
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	pts := s.offset + float64(s.frames)*s.meta.FrameInterval()
	s.frames++
	s.pts = pts

	return &media.Frame{
		Index:    -1,
		PTS:      pts,
		Width:    s.meta.Width,
		Height:   s.meta.Height,
		Pixels:   pixels,
		Metadata: s.meta,
		Library:  "ffmpeg",
	}, nil
}

// Metadata returns the probed stream metadata.
func (s *Source) Metadata() media.Metadata {
	return s.meta
}

// PTS returns the presentation timestamp of the last decoded frame.
func (s *Source) PTS() float64 {
	return s.pts
}

// Seek jumps to a timestamp by restarting ffmpeg with an input offset.
func (s *Source) Seek(timestamp float64, relative bool) (float64, error) {
	if relative {
		timestamp = s.pts + timestamp
	}
	if timestamp < 0 {
		timestamp = 0
	}
	if s.meta.Duration > 0 && timestamp > s.meta.Duration {
		timestamp = s.meta.Duration
	}

	s.stopProcess()
	s.offset = timestamp
	s.pts = timestamp
	s.eof = false

	if s.soundtrack != nil {
		s.soundtrack.seek(timestamp)
	}
	return timestamp, nil
}

// SetPause pauses or resumes decoding.
func (s *Source) SetPause(paused bool) {
	s.paused = paused
	if s.soundtrack != nil {
		s.soundtrack.setPause(paused)
	}
}

// Paused reports whether decoding is paused.
func (s *Source) Paused() bool {
	return s.paused
}

// SetMute mutes or unmutes the soundtrack. A no-op without one.
func (s *Source) SetMute(muted bool) {
	if s.soundtrack != nil {
		s.soundtrack.out.SetMuted(muted)
	}
}

// Muted reports whether the soundtrack is muted.
func (s *Source) Muted() bool {
	if s.soundtrack == nil {
		return false
	}
	return s.soundtrack.out.Muted()
}

// SetVolume sets the soundtrack volume in [0.0, 1.0]. A no-op without
// a soundtrack.
func (s *Source) SetVolume(volume float64) {
	if s.soundtrack != nil {
		s.soundtrack.out.SetVolume(volume)
	}
}

// Volume returns the soundtrack volume.
func (s *Source) Volume() float64 {
	if s.soundtrack == nil {
		return 0.0
	}
	return s.soundtrack.out.Volume()
}

// Close kills the decoder process and stops the soundtrack.
func (s *Source) Close() error {
	s.stopProcess()
	if s.soundtrack != nil {
		s.soundtrack.stop()
	}
	return nil
}
