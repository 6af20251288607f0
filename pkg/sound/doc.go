// ABOUTME: Package doc for sound stimuli
// ABOUTME: One-shot playback of MP3, WAV and Ogg Opus files

// Package sound plays auditory stimuli for psychology experiments.
//
// A stimulus is loaded from an MP3, WAV or Ogg Opus file and played
// once through a pkg/audio/output device:
//
//	player := sound.NewPlayer(sound.Config{Output: output.NewOto()})
//	err := player.Load("beep.wav")
//	err = player.Play()
package sound
