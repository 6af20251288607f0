// ABOUTME: Stream probing via ffprobe
// ABOUTME: Parses ffprobe JSON output into stream metadata
package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/StimKit/stimkit-go/pkg/media"
)

// probeResult mirrors the subset of ffprobe's JSON output we consume.
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

type probeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

// Probe runs ffprobe against path and returns the stream metadata.
func Probe(ffprobePath, path string) (media.Metadata, error) {
	out, err := exec.Command(ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	).Output()
	if err != nil {
		return media.NullMetadata, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return parseProbe(path, out)
}

// parseProbe converts raw ffprobe JSON into metadata.
func parseProbe(path string, raw []byte) (media.Metadata, error) {
	var result probeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return media.NullMetadata, fmt.Errorf("parse ffprobe output: %w", err)
	}

	meta := media.Metadata{
		Path:        path,
		PixelFormat: "rgb24",
		Library:     "ffmpeg",
	}

	if result.Format.Duration != "" {
		d, err := strconv.ParseFloat(result.Format.Duration, 64)
		if err != nil {
			return media.NullMetadata, fmt.Errorf("parse duration %q: %w", result.Format.Duration, err)
		}
		meta.Duration = d
	}
	meta.Title = result.Format.Tags["title"]

	for _, stream := range result.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta.Width = stream.Width
		meta.Height = stream.Height

		rate, err := parseRational(stream.RFrameRate)
		if err != nil || !rate.Valid() {
			rate, err = parseRational(stream.AvgFrameRate)
			if err != nil {
				return media.NullMetadata, fmt.Errorf("parse frame rate: %w", err)
			}
		}
		meta.FrameRate = rate
		return meta, nil
	}

	return media.NullMetadata, fmt.Errorf("no video stream in %q", path)
}

// parseRational parses ffprobe's "num/den" rate notation.
func parseRational(s string) (media.Rational, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return media.Rational{}, fmt.Errorf("malformed rational %q", s)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return media.Rational{}, fmt.Errorf("malformed rational %q: %w", s, err)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return media.Rational{}, fmt.Errorf("malformed rational %q: %w", s, err)
	}
	return media.Rational{Num: n, Den: d}, nil
}
