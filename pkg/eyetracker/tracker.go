// ABOUTME: Eye tracker device abstraction
// ABOUTME: Vendor-neutral interface with vendor tags for calibration quirks
package eyetracker

// Vendor identifies the eye tracker make, which decides the calibration
// settings dialect.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorEyeLink
	VendorTobii
	VendorGazePoint
	VendorMouseGaze
)

// String returns the vendor name.
func (v Vendor) String() string {
	switch v {
	case VendorEyeLink:
		return "EyeLink"
	case VendorTobii:
		return "Tobii"
	case VendorGazePoint:
		return "GazePoint"
	case VendorMouseGaze:
		return "MouseGaze"
	default:
		return "Unknown"
	}
}

// Point is a gaze position in window units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Settings is a vendor calibration settings map, shaped by
// Calibration.Settings.
type Settings map[string]any

// Tracker is an eye tracker device. Implementations talk to real
// hardware, usually through a gateway process that owns the vendor SDK.
type Tracker interface {
	// Vendor reports the device make.
	Vendor() Vendor

	// SetRecording starts or stops sample recording.
	SetRecording(enabled bool) error

	// Position returns the latest gaze position.
	Position() (Point, error)

	// ClearEvents drops buffered tracker events.
	ClearEvents() error

	// RunSetup runs the vendor calibration procedure with the given
	// settings and reports whether it completed successfully.
	RunSetup(settings Settings) (bool, error)
}

// Window is the minimal stimulus window surface the calibration routine
// needs: it hides the window while the vendor's own UI runs.
type Window interface {
	Hide()
	Show()
	Flip() error
}
