// ABOUTME: Package doc for the movie player
// ABOUTME: Async decode pipeline with experiment-clock timing

// Package movie plays video stimuli for psychology experiments.
//
// A Player owns a media.Source decoder and a StreamReader goroutine.
// The reader pulls frames at a cadence derived from the stream's own
// frame rate and hands them to the consumer through a bounded,
// non-blocking FrameQueue; a full queue drops the newest frame, trading
// at most one frame of staleness for decoder throughput.
//
// Typical use, once per display refresh:
//
//	player := movie.NewPlayer(movie.Config{Open: ffmpeg.Open})
//	err := player.Load("stimulus.mp4")
//	err = player.Play()
//	frame, err := player.GetMovieFrame(clock.GetTime())
package movie
