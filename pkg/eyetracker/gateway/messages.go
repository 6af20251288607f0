// ABOUTME: Gateway wire protocol message types
// ABOUTME: JSON envelope with typed payloads for tracker control
package gateway

import "github.com/StimKit/stimkit-go/pkg/eyetracker"

// Message is the JSON envelope for all gateway traffic. Requests carry
// a RequestID; the gateway echoes it on the matching response.
type Message struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// ClientHello opens the handshake.
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`

	Product         string `json:"product,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`
}

// GatewayHello answers the handshake.
type GatewayHello struct {
	GatewayID string `json:"gateway_id"`
	Vendor    string `json:"vendor"`
}

// RecordRequest starts or stops sample recording.
type RecordRequest struct {
	Enabled bool `json:"enabled"`
}

// SetupRequest runs the vendor calibration procedure.
type SetupRequest struct {
	Settings eyetracker.Settings `json:"settings"`
}

// Response is the generic request outcome.
type Response struct {
	OK     bool   `json:"ok"`
	Passed bool   `json:"passed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Sample is a streamed gaze sample.
type Sample struct {
	Position eyetracker.Point `json:"position"`
	Time     float64          `json:"time"`
}
