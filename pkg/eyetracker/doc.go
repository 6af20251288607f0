// ABOUTME: Package doc for eye tracking
// ABOUTME: Thin control layer, vendor work lives behind a gateway

// Package eyetracker couples eye tracker recording to stimulus
// playback.
//
// The toolkit does not speak vendor SDKs itself. A gateway process owns
// the tracker hardware; this package provides the Tracker abstraction,
// a Control that starts and stops recording as a stimulus plays, and a
// Calibration that renders one parameter set into each vendor's
// settings dialect. The gateway subpackage connects to a gateway over
// websocket; the discovery subpackage finds gateways with mDNS.
package eyetracker
