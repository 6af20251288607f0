// ABOUTME: Version constants for the toolkit
// ABOUTME: Reported to gateways and in the TUI header
package version

const (
	// Version is the toolkit release version.
	Version = "0.1.0"

	// Product is the product name reported to gateways.
	Product = "StimKit Player"

	// Manufacturer identifies the project.
	Manufacturer = "StimKit"
)
