// ABOUTME: Shared stimulus status constants
// ABOUTME: One closed enum used by the movie player, sound player and eyetracker control
package status

// Status describes the lifecycle state of a stimulus or recording stream.
type Status int

const (
	NotStarted Status = iota
	Playing
	Paused
	Stopping
	Stopped
	Finished
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Terminal reports whether the status is a full stop, i.e. the stream
// must be reloaded before it can run again.
func (s Status) Terminal() bool {
	return s == Stopped || s == Finished
}
