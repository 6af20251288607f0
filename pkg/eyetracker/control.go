// ABOUTME: Recording control that follows stimulus status
// ABOUTME: Recording tracks play/pause so gaze data aligns with playback
package eyetracker

import (
	"fmt"

	"github.com/StimKit/stimkit-go/pkg/status"
)

// Control couples tracker recording to the status of a stimulus,
// typically a movie. Setting the status to Playing starts recording;
// any stopped or paused status halts it. Events are cleared when
// recording restarts after a full stop, so a replay begins with an
// empty event buffer.
type Control struct {
	tracker Tracker
	status  status.Status
}

// NewControl creates a recording control around a tracker.
func NewControl(tracker Tracker) *Control {
	return &Control{
		tracker: tracker,
		status:  status.NotStarted,
	}
}

// Status returns the stimulus status the control last saw.
func (c *Control) Status() status.Status {
	return c.status
}

// SetStatus informs the control of a stimulus status change and adjusts
// recording to match. Setting the same status twice is a no-op.
func (c *Control) SetStatus(s status.Status) error {
	old := c.status
	c.status = s
	if s == old {
		return nil
	}

	if s == status.Playing {
		if old == status.NotStarted || old == status.Stopped || old == status.Finished {
			// coming out of a full stop; drop stale events first
			if err := c.tracker.ClearEvents(); err != nil {
				return fmt.Errorf("eyetracker: clear events: %w", err)
			}
		}
		if err := c.tracker.SetRecording(true); err != nil {
			return fmt.Errorf("eyetracker: start recording: %w", err)
		}
		return nil
	}

	switch s {
	case status.NotStarted, status.Paused, status.Stopping, status.Stopped, status.Finished:
		if err := c.tracker.SetRecording(false); err != nil {
			return fmt.Errorf("eyetracker: stop recording: %w", err)
		}
	}
	return nil
}

// Position returns the latest gaze position.
func (c *Control) Position() (Point, error) {
	return c.tracker.Position()
}
