// ABOUTME: Calibration routine and vendor settings translation
// ABOUTME: One parameter set rendered into each vendor's settings dialect
package eyetracker

import (
	"fmt"
	"log"
)

// Calibration holds calibration parameters and translates them into the
// settings dialect of the tracker's vendor. The zero value is not
// usable; create one with NewCalibration.
type Calibration struct {
	// TargetLayout names the point grid, e.g. "NINE_POINTS".
	TargetLayout string

	// ProgressMode is "time" for auto-paced targets or "space" for
	// keypress pacing.
	ProgressMode string

	// TargetDur is how long each target is shown, in seconds.
	TargetDur float64

	// TargetDelay is the pause between targets, in seconds.
	TargetDelay float64

	// ExpandScale is the target expansion ratio for animated targets.
	ExpandScale float64

	// RandomisePos shuffles target order.
	RandomisePos bool

	// MovementAnimation animates targets between positions.
	MovementAnimation bool

	// Units and ColorSpace describe how target attributes are expressed.
	Units      string
	ColorSpace string

	// TargetAttributes is passed through to the vendor as the visual
	// description of the calibration target.
	TargetAttributes map[string]any

	// BackgroundColor is the screen background during calibration.
	BackgroundColor string

	// Passed reports whether the last Run completed successfully.
	Passed bool
}

// NewCalibration creates a calibration with the usual defaults: nine
// auto-paced points, 1.5s per target.
func NewCalibration() *Calibration {
	return &Calibration{
		TargetLayout: "NINE_POINTS",
		ProgressMode: "time",
		TargetDur:    1.5,
		TargetDelay:  1.0,
		ExpandScale:  1.5,
		RandomisePos: true,
		Units:        "height",
		ColorSpace:   "rgb",
	}
}

// animation returns the animate sub-map shared by the Tobii, GazePoint
// and MouseGaze dialects.
func (c *Calibration) animation(withSpeed bool) map[string]any {
	anim := map[string]any{
		"enable":          c.MovementAnimation,
		"expansion_ratio": c.ExpandScale,
		"contract_only":   c.ExpandScale == 1,
	}
	if withSpeed {
		anim["expansion_speed"] = c.TargetDur
	}
	return anim
}

// targetAttributes returns a copy of the target attributes, optionally
// with an animate sub-map merged in.
func (c *Calibration) targetAttributes(anim map[string]any) map[string]any {
	attrs := make(map[string]any, len(c.TargetAttributes)+1)
	for k, v := range c.TargetAttributes {
		attrs[k] = v
	}
	if anim != nil {
		attrs["animate"] = anim
	}
	return attrs
}

// Settings renders the calibration for the given vendor.
func (c *Calibration) Settings(vendor Vendor) (Settings, error) {
	switch vendor {
	case VendorEyeLink:
		return Settings{
			"target_attributes":       c.targetAttributes(nil),
			"type":                    c.TargetLayout,
			"auto_pace":               c.ProgressMode == "time",
			"pacing_speed":            c.TargetDelay,
			"screen_background_color": c.BackgroundColor,
		}, nil

	case VendorTobii:
		return Settings{
			"target_attributes":       c.targetAttributes(c.animation(true)),
			"type":                    c.TargetLayout,
			"randomize":               c.RandomisePos,
			"auto_pace":               c.ProgressMode == "time",
			"pacing_speed":            c.TargetDelay,
			"unit_type":               c.Units,
			"color_type":              c.ColorSpace,
			"screen_background_color": c.BackgroundColor,
		}, nil

	case VendorGazePoint:
		return Settings{
			"use_builtin":             false,
			"target_delay":            c.TargetDelay,
			"target_duration":         c.TargetDur,
			"target_attributes":       c.targetAttributes(c.animation(false)),
			"type":                    c.TargetLayout,
			"randomize":               c.RandomisePos,
			"unit_type":               c.Units,
			"color_type":              c.ColorSpace,
			"screen_background_color": c.BackgroundColor,
		}, nil

	case VendorMouseGaze:
		return Settings{
			"target_attributes":       c.targetAttributes(c.animation(false)),
			"type":                    c.TargetLayout,
			"randomize":               c.RandomisePos,
			"auto_pace":               c.ProgressMode == "time",
			"pacing_speed":            c.TargetDelay,
			"unit_type":               c.Units,
			"color_type":              c.ColorSpace,
			"screen_background_color": c.BackgroundColor,
		}, nil

	default:
		return nil, fmt.Errorf("eyetracker: no calibration dialect for vendor %s", vendor)
	}
}

// Run hides the stimulus window, hands control to the vendor setup
// procedure, then restores the window. The result is kept in Passed.
func (c *Calibration) Run(win Window, tracker Tracker) error {
	settings, err := c.Settings(tracker.Vendor())
	if err != nil {
		return err
	}

	switch tracker.Vendor() {
	case VendorEyeLink:
		if c.MovementAnimation {
			log.Printf("eyetracker: EyeLink ignores movement animation settings")
		}
	case VendorGazePoint:
		if c.ProgressMode != "time" {
			log.Printf("eyetracker: GazePoint paces targets itself, progress mode %q ignored", c.ProgressMode)
		}
	}

	win.Hide()
	passed, err := tracker.RunSetup(settings)
	win.Show()
	if err != nil {
		return fmt.Errorf("eyetracker: calibration: %w", err)
	}
	c.Passed = passed

	// an explicit flip after restore, otherwise the first post-setup
	// screen can come up black
	return win.Flip()
}
