// ABOUTME: Stream metadata types
// ABOUTME: Frame rate is kept as a rational to preserve exact NTSC-style rates
package media

// Rational is a frame rate expressed as numerator/denominator.
type Rational struct {
	Num int
	Den int
}

// Valid reports whether the rational describes a usable frame rate.
// Decoders commonly report a zero denominator until the first frame has
// been pulled.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Interval returns the duration one frame occupies in seconds, i.e. the
// reciprocal of the frame rate. Returns 0 for an invalid rational.
func (r Rational) Interval() float64 {
	if !r.Valid() {
		return 0.0
	}
	return float64(r.Den) / float64(r.Num)
}

// Metadata describes a movie stream. Values are only accurate once the
// decoder has pulled at least one frame.
type Metadata struct {
	// Path is the file or URI the stream was opened from.
	Path string

	// Title from the container metadata, may be empty.
	Title string

	// Duration of the stream in seconds.
	Duration float64

	// FrameRate of the video stream.
	FrameRate Rational

	Width  int
	Height int

	// PixelFormat names the decoded pixel layout, e.g. "rgb24".
	PixelFormat string

	// Library names the decoding library that produced the metadata.
	Library string
}

// NullMetadata is the sentinel used when no stream is loaded.
var NullMetadata = Metadata{Duration: -1.0}

// FrameInterval returns the presentation duration of a single frame in
// seconds, or 0 if the frame rate is not yet known.
func (m Metadata) FrameInterval() float64 {
	return m.FrameRate.Interval()
}
