// ABOUTME: Package doc for the ffmpeg decoder
// ABOUTME: External-process decoding keeps the toolkit cgo-free

// Package ffmpeg decodes movies with external ffmpeg and ffprobe
// processes.
//
// Video frames are read as raw rgb24 off a pipe, one frame per
// GetFrame call; the soundtrack, when enabled, is decoded by a second
// process and played through a pkg/audio/output device. Seeking
// restarts the processes with an input offset.
//
// Both binaries must be on PATH, or their locations given in Options.
package ffmpeg
