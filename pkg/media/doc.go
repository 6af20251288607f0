// ABOUTME: Package doc for media types
// ABOUTME: Shared between decoders, the movie player and consumers

// Package media defines the value types exchanged between a movie
// decoder and the movie player: frames, stream metadata, stream status,
// and the Source capability a decoder must provide.
package media
