// ABOUTME: Entry point for the StimKit movie player
// ABOUTME: Parses CLI flags, wires playback, eye tracking and the TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/StimKit/stimkit-go/internal/ui"
	"github.com/StimKit/stimkit-go/internal/version"
	"github.com/StimKit/stimkit-go/pkg/audio/output"
	"github.com/StimKit/stimkit-go/pkg/eyetracker"
	"github.com/StimKit/stimkit-go/pkg/eyetracker/discovery"
	"github.com/StimKit/stimkit-go/pkg/eyetracker/gateway"
	"github.com/StimKit/stimkit-go/pkg/media"
	"github.com/StimKit/stimkit-go/pkg/media/ffmpeg"
	"github.com/StimKit/stimkit-go/pkg/movie"
	"github.com/StimKit/stimkit-go/pkg/status"
)

var (
	gatewayAddr  = flag.String("gateway", "", "Manual eye tracker gateway address (skip mDNS)")
	track        = flag.Bool("track", false, "Record eye tracker samples during playback")
	name         = flag.String("name", "", "Client name reported to the gateway (default: hostname)")
	bufferFrames = flag.Int("buffer-frames", 1, "Frame queue capacity")
	volume       = flag.Float64("volume", 1.0, "Initial volume (0.0-1.0)")
	skipSeconds  = flag.Float64("skip", movie.DefaultSkipSeconds, "Seconds skipped by seek keys")
	ffmpegPath   = flag.String("ffmpeg", "", "Path to the ffmpeg binary (default: from PATH)")
	ffprobePath  = flag.String("ffprobe", "", "Path to the ffprobe binary (default: from PATH)")
	noAudio      = flag.Bool("no-audio", false, "Disable soundtrack playback")
	logFile      = flag.String("log-file", "stimkit-player.log", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <movie file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	moviePath := flag.Arg(0)

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// Determine client name
	clientName := *name
	if clientName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		clientName = hostname
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Eye tracking setup: connect to a gateway, discovering it over mDNS
	// unless one was given explicitly
	var trackerCtrl *eyetracker.Control
	if *track {
		addr := *gatewayAddr
		gwName := addr
		if addr == "" {
			log.Printf("Starting gateway discovery...")
			disc := discovery.NewManager(discovery.Config{ServiceName: clientName})
			disc.Browse()

			select {
			case gw := <-disc.Gateways():
				addr = gw.Addr()
				gwName = gw.Name
				log.Printf("Discovered gateway at %s", addr)
			case <-time.After(10 * time.Second):
				log.Fatalf("No gateway found after 10 seconds")
			}
			disc.Stop()
		}

		client := gateway.NewClient(gateway.Config{
			GatewayAddr:     addr,
			Name:            clientName,
			Product:         version.Product,
			SoftwareVersion: version.Version,
		})
		if err := client.Connect(); err != nil {
			log.Fatalf("Gateway connection failed: %v", err)
		}
		defer client.Close()

		trackerCtrl = eyetracker.NewControl(client)

		connected := true
		updateTUI(ui.StatusMsg{Connected: &connected, GatewayName: gwName})
	}

	// Decoder setup
	var out output.Output
	if !*noAudio {
		out = output.NewOto()
	}
	opener := func(path string) (media.Source, error) {
		return ffmpeg.OpenWith(path, ffmpeg.Options{
			FFmpegPath:  *ffmpegPath,
			FFprobePath: *ffprobePath,
			Audio:       out,
		})
	}

	player := movie.NewPlayer(movie.Config{
		Open:         opener,
		BufferFrames: *bufferFrames,
	})

	if err := player.Load(moviePath); err != nil {
		log.Fatalf("Failed to load %s: %v", moviePath, err)
	}
	if err := player.SetVolume(*volume); err != nil {
		log.Printf("Failed to set volume: %v", err)
	}

	meta, err := player.Metadata()
	if err != nil {
		log.Fatalf("Failed to read metadata: %v", err)
	}
	log.Printf("Loaded %s: %dx%d, %.2fs", moviePath, meta.Width, meta.Height, meta.Duration)

	loaded := true
	frameRate := 0.0
	if meta.FrameRate.Valid() {
		frameRate = float64(meta.FrameRate.Num) / float64(meta.FrameRate.Den)
	}
	updateTUI(ui.StatusMsg{
		Loaded:    &loaded,
		Path:      moviePath,
		Title:     meta.Title,
		Width:     meta.Width,
		Height:    meta.Height,
		FrameRate: frameRate,
		Duration:  meta.Duration,
		Volume:    volume,
	})

	// Without a TUI there is nothing to press play, so start immediately
	if !useTUI {
		if err := player.Play(); err != nil {
			log.Fatalf("Failed to start playback: %v", err)
		}
	}

	// The player is not safe for concurrent use; one driver goroutine
	// owns it for both keyboard commands and the status tick
	quit := make(chan struct{}, 1)
	stop := make(chan struct{})
	done := make(chan struct{})
	go drivePlayer(player, moviePath, trackerCtrl, controls, updateTUI, quit, stop, done)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Printf("Received quit from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	}

	close(stop)
	<-done

	if trackerCtrl != nil {
		if err := trackerCtrl.SetStatus(status.Stopped); err != nil {
			log.Printf("Error stopping recording: %v", err)
		}
	}
	if player.IsLoaded() {
		if err := player.Unload(); err != nil {
			log.Printf("Error closing player: %v", err)
		}
	}

	log.Printf("Player stopped")
}

// drivePlayer owns the player: it serves keyboard commands, drains
// decoded frames, follows playback status with the tracker recording,
// and refreshes the TUI.
func drivePlayer(player *movie.Player, moviePath string, trackerCtrl *eyetracker.Control, controls *ui.Controls, updateTUI func(ui.StatusMsg), quit, stop chan struct{}, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	commands := make(chan ui.Command)
	if controls != nil {
		commands = controls.Commands
	}

	for {
		select {
		case <-stop:
			return

		case cmd := <-commands:
			if cmd == ui.CmdQuit {
				select {
				case quit <- struct{}{}:
				default:
				}
				return
			}
			if err := runCommand(player, moviePath, cmd); err != nil {
				log.Printf("Transport command failed: %v", err)
			}

		case <-ticker.C:
			if !player.IsLoaded() {
				continue
			}

			// keep the consumer side of the frame queue moving
			if _, err := player.PollMovieFrame(); err != nil {
				log.Printf("Frame poll failed: %v", err)
			}

			st := player.Status()

			if trackerCtrl != nil {
				if err := trackerCtrl.SetStatus(st); err != nil {
					log.Printf("Recording control failed: %v", err)
				}
			}

			pts := player.PTS()
			frameIndex := player.FrameIndex()
			percent, _ := player.PercentComplete()
			vol, _ := player.Volume()
			muted, _ := player.Muted()

			msg := ui.StatusMsg{
				State:      st.String(),
				PTS:        &pts,
				Percent:    &percent,
				FrameIndex: &frameIndex,
				Volume:     &vol,
				Muted:      &muted,
			}

			if trackerCtrl != nil {
				recording := trackerCtrl.Status() == status.Playing
				msg.Recording = &recording
				if pos, err := trackerCtrl.Position(); err == nil {
					msg.Gaze = &pos
				}
			}

			updateTUI(msg)
		}
	}
}

// runCommand applies one keyboard command to the player. After a full
// stop the decoder is gone, so restart commands reload the file instead
// of replaying the open stream.
func runCommand(player *movie.Player, moviePath string, cmd ui.Command) error {
	restart := func() error {
		if !player.IsLoaded() {
			if err := player.Load(moviePath); err != nil {
				return err
			}
			return player.Play()
		}
		return player.Replay(true)
	}

	switch cmd {
	case ui.CmdTogglePlay:
		if player.IsPlaying() {
			_, err := player.Pause()
			return err
		}
		if player.IsFinished() || player.IsStopped() {
			return restart()
		}
		return player.Play()
	case ui.CmdStop:
		return player.Stop()
	case ui.CmdReplay:
		return restart()
	case ui.CmdSeekBack:
		_, err := player.Rewind(*skipSeconds)
		return err
	case ui.CmdSeekForward:
		_, err := player.FastForward(*skipSeconds)
		return err
	case ui.CmdVolumeUp:
		_, err := player.VolumeUp(0.05)
		return err
	case ui.CmdVolumeDown:
		_, err := player.VolumeDown(0.05)
		return err
	case ui.CmdToggleMute:
		muted, err := player.Muted()
		if err != nil {
			return err
		}
		return player.SetMuted(!muted)
	}
	return nil
}
