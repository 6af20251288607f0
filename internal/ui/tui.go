// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the playback UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a transport request raised from the keyboard.
type Command int

const (
	CmdTogglePlay Command = iota
	CmdStop
	CmdReplay
	CmdSeekBack
	CmdSeekForward
	CmdVolumeUp
	CmdVolumeDown
	CmdToggleMute
	CmdQuit
)

// Controls carries keyboard commands out of the TUI to whoever drives
// the player.
type Controls struct {
	Commands chan Command
}

// NewControls creates a control channel set
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		state:    "not started",
		volume:   1.0,
		controls: controls,
	}
}

// Run starts the TUI
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
