// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/StimKit/stimkit-go/pkg/eyetracker"
)

// Model represents the TUI state
type Model struct {
	// Movie
	loaded    bool
	path      string
	title     string
	vidWidth  int
	vidHeight int
	frameRate float64
	duration  float64

	// Playback
	state      string
	pts        float64
	percent    float64
	frameIndex int
	volume     float64
	muted      bool

	// Eye tracking
	connected   bool
	gatewayName string
	recording   bool
	gaze        eyetracker.Point
	hasGaze     bool

	// Dimensions
	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderMovieInfo()
	s += m.renderTransport()
	s += m.renderTracker()
	s += m.renderHelp()

	return s
}

// renderHeader renders the loaded file and playback state
func (m Model) renderHeader() string {
	fileStatus := "No movie loaded"
	if m.loaded {
		fileStatus = truncate(m.path, 45)
	}

	return fmt.Sprintf(`┌─ StimKit Player ─────────────────────────────────────┐
│ File:   %-45s │
│ State:  %-45s │
├──────────────────────────────────────────────────────┤
`, fileStatus, m.state)
}

// renderMovieInfo renders the stream metadata
func (m Model) renderMovieInfo() string {
	if !m.loaded {
		return "│ No stream                                            │\n"
	}

	s := ""
	if m.title != "" {
		s += fmt.Sprintf("│ Title:  %-45s │\n", truncate(m.title, 45))
	}
	s += fmt.Sprintf("│ Video:  %dx%d @ %.3f fps%-22s │\n",
		m.vidWidth, m.vidHeight, m.frameRate, "")
	s += fmt.Sprintf("│ Length: %s%-36s │\n", formatTime(m.duration), "")

	return s
}

// renderTransport renders progress and volume
func (m Model) renderTransport() string {
	progressBar := renderBar(int(m.percent), 100, 20)
	volumeBar := renderBar(int(m.volume*100), 100, 10)

	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ [%s] %5.1f%%  frame %-6d     │\n"+
		"│ %s / %s%-28s │\n"+
		"│ Volume: [%s] %3.0f%%%s%-16s │\n",
		progressBar, m.percent, m.frameIndex,
		formatTime(m.pts), formatTime(m.duration), "",
		volumeBar, m.volume*100, muteIcon, "")
}

// renderTracker renders eye tracker status
func (m Model) renderTracker() string {
	if !m.connected {
		return `├──────────────────────────────────────────────────────┤
│ Tracker: not connected                               │
`
	}

	recStatus := "idle"
	if m.recording {
		recStatus = "● recording"
	}

	gazeText := "(no sample)"
	if m.hasGaze {
		gazeText = fmt.Sprintf("(%+.3f, %+.3f)", m.gaze.X, m.gaze.Y)
	}

	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Tracker: %-43s │
│ Gaze:    %-43s │
`, fmt.Sprintf("%s %s", truncate(m.gatewayName, 30), recStatus), gazeText)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ space:Play/Pause  ←/→:Seek  ↑/↓:Volume  m:Mute      │
│ s:Stop  r:Replay  q:Quit                             │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(CmdQuit)
		return m, tea.Quit
	case " ":
		m.send(CmdTogglePlay)
	case "s":
		m.send(CmdStop)
	case "r":
		m.send(CmdReplay)
	case "left":
		m.send(CmdSeekBack)
	case "right":
		m.send(CmdSeekForward)
	case "up":
		m.send(CmdVolumeUp)
	case "down":
		m.send(CmdVolumeDown)
	case "m":
		m.send(CmdToggleMute)
	}

	return m, nil
}

// send forwards a transport command without blocking the update loop.
func (m Model) send(cmd Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- cmd:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Loaded != nil {
		m.loaded = *msg.Loaded
	}
	if msg.Path != "" {
		m.path = msg.Path
	}
	if msg.Title != "" {
		m.title = msg.Title
	}
	if msg.Width != 0 {
		m.vidWidth = msg.Width
		m.vidHeight = msg.Height
	}
	if msg.FrameRate != 0 {
		m.frameRate = msg.FrameRate
	}
	if msg.Duration != 0 {
		m.duration = msg.Duration
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.PTS != nil {
		m.pts = *msg.PTS
	}
	if msg.Percent != nil {
		m.percent = *msg.Percent
	}
	if msg.FrameIndex != nil {
		m.frameIndex = *msg.FrameIndex
	}
	if msg.Volume != nil {
		m.volume = *msg.Volume
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.GatewayName != "" {
		m.gatewayName = msg.GatewayName
	}
	if msg.Recording != nil {
		m.recording = *msg.Recording
	}
	if msg.Gaze != nil {
		m.gaze = *msg.Gaze
		m.hasGaze = true
	}
}

// StatusMsg updates TUI state. Nil pointer fields and empty strings
// leave the current value in place.
type StatusMsg struct {
	Loaded      *bool
	Path        string
	Title       string
	Width       int
	Height      int
	FrameRate   float64
	Duration    float64
	State       string
	PTS         *float64
	Percent     *float64
	FrameIndex  *int
	Volume      *float64
	Muted       *bool
	Connected   *bool
	GatewayName string
	Recording   *bool
	Gaze        *eyetracker.Point
}

// Utility functions
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatTime(secs float64) string {
	if secs < 0 {
		secs = 0
	}
	total := int(secs)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
