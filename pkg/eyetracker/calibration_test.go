// ABOUTME: Tests for calibration settings dialects and the run sequence
// ABOUTME: Checks per-vendor settings keys against expectations
package eyetracker

import (
	"testing"
)

type fakeWindow struct {
	calls []string
}

func (w *fakeWindow) Hide()       { w.calls = append(w.calls, "hide") }
func (w *fakeWindow) Show()       { w.calls = append(w.calls, "show") }
func (w *fakeWindow) Flip() error { w.calls = append(w.calls, "flip"); return nil }

func TestEyeLinkSettings(t *testing.T) {
	c := NewCalibration()
	settings, err := c.Settings(VendorEyeLink)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}

	if settings["type"] != "NINE_POINTS" {
		t.Errorf("expected NINE_POINTS layout, got %v", settings["type"])
	}
	if settings["auto_pace"] != true {
		t.Error("expected auto_pace for time progress mode")
	}
	if settings["pacing_speed"] != 1.0 {
		t.Errorf("expected pacing_speed 1.0, got %v", settings["pacing_speed"])
	}
	// EyeLink has no target animation support
	attrs := settings["target_attributes"].(map[string]any)
	if _, ok := attrs["animate"]; ok {
		t.Error("expected no animate map for EyeLink")
	}
	if _, ok := settings["randomize"]; ok {
		t.Error("expected no randomize key for EyeLink")
	}
}

func TestTobiiSettings(t *testing.T) {
	c := NewCalibration()
	c.MovementAnimation = true
	settings, err := c.Settings(VendorTobii)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}

	if settings["randomize"] != true {
		t.Error("expected randomize enabled")
	}
	if settings["unit_type"] != "height" || settings["color_type"] != "rgb" {
		t.Errorf("expected unit/color passthrough, got %v/%v",
			settings["unit_type"], settings["color_type"])
	}

	attrs := settings["target_attributes"].(map[string]any)
	anim := attrs["animate"].(map[string]any)
	if anim["enable"] != true {
		t.Error("expected animation enabled")
	}
	if anim["expansion_speed"] != 1.5 {
		t.Errorf("expected expansion_speed from target duration, got %v", anim["expansion_speed"])
	}
	if anim["contract_only"] != false {
		t.Errorf("expected contract_only false for expand scale 1.5, got %v", anim["contract_only"])
	}
}

func TestGazePointSettings(t *testing.T) {
	c := NewCalibration()
	settings, err := c.Settings(VendorGazePoint)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}

	if settings["use_builtin"] != false {
		t.Error("expected use_builtin false")
	}
	if settings["target_duration"] != 1.5 {
		t.Errorf("expected target_duration 1.5, got %v", settings["target_duration"])
	}

	// GazePoint's animate map carries no expansion speed
	attrs := settings["target_attributes"].(map[string]any)
	anim := attrs["animate"].(map[string]any)
	if _, ok := anim["expansion_speed"]; ok {
		t.Error("expected no expansion_speed for GazePoint")
	}
}

func TestMouseGazeSettings(t *testing.T) {
	c := NewCalibration()
	settings, err := c.Settings(VendorMouseGaze)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings["auto_pace"] != true {
		t.Error("expected auto_pace for MouseGaze")
	}
}

func TestUnknownVendorSettings(t *testing.T) {
	c := NewCalibration()
	if _, err := c.Settings(VendorUnknown); err == nil {
		t.Error("expected error for unknown vendor")
	}
}

func TestContractOnlyAtUnitScale(t *testing.T) {
	c := NewCalibration()
	c.ExpandScale = 1

	settings, _ := c.Settings(VendorTobii)
	attrs := settings["target_attributes"].(map[string]any)
	anim := attrs["animate"].(map[string]any)
	if anim["contract_only"] != true {
		t.Error("expected contract_only at expand scale 1")
	}
}

func TestRunHidesAndRestoresWindow(t *testing.T) {
	tracker := &scriptTracker{vendor: VendorTobii, setupPass: true}
	win := &fakeWindow{}
	c := NewCalibration()

	if err := c.Run(win, tracker); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"hide", "show", "flip"}
	if len(win.calls) != len(want) {
		t.Fatalf("expected window calls %v, got %v", want, win.calls)
	}
	for i := range want {
		if win.calls[i] != want[i] {
			t.Fatalf("expected window calls %v, got %v", want, win.calls)
		}
	}

	if tracker.setupRuns != 1 {
		t.Errorf("expected one setup run, got %d", tracker.setupRuns)
	}
	if !c.Passed {
		t.Error("expected Passed after a successful run")
	}
	if tracker.settings["type"] != "NINE_POINTS" {
		t.Errorf("expected settings handed to tracker, got %v", tracker.settings)
	}
}
