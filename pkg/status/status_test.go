// ABOUTME: Tests for stimulus status constants
// ABOUTME: Covers names and terminal classification
package status

import "testing"

func TestStringNames(t *testing.T) {
	tests := map[Status]string{
		NotStarted:  "not started",
		Playing:     "playing",
		Paused:      "paused",
		Stopping:    "stopping",
		Stopped:     "stopped",
		Finished:    "finished",
		Status(100): "unknown",
	}

	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := map[Status]bool{
		NotStarted: false,
		Playing:    false,
		Paused:     false,
		Stopping:   false,
		Stopped:    true,
		Finished:   true,
	}

	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}
