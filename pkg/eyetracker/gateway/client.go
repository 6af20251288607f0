// ABOUTME: WebSocket client for a remote eye tracker gateway
// ABOUTME: Handles connection, handshake, request correlation and gaze stream
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/StimKit/stimkit-go/pkg/eyetracker"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// requestTimeout bounds ordinary request round trips. Calibration runs
// interactively and gets setupTimeout instead.
const (
	requestTimeout = 10 * time.Second
	setupTimeout   = 5 * time.Minute
)

// Config holds client configuration
type Config struct {
	// GatewayAddr is the host:port of the gateway process.
	GatewayAddr string

	// Name identifies this client to the gateway.
	Name string

	// Product and SoftwareVersion describe the client software in the
	// handshake. Optional.
	Product         string
	SoftwareVersion string
}

// Client is a websocket connection to an eye tracker gateway, the
// process that owns the vendor SDK. It implements eyetracker.Tracker.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	vendor eyetracker.Vendor

	pending map[string]chan Response
	pos     eyetracker.Point

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a gateway client. Connect must be called before any
// tracker operation.
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:  config,
		pending: make(map[string]chan Response),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes the WebSocket connection and performs the
// handshake.
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.GatewayAddr, Path: "/tracker"}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake exchanges hello messages and learns the tracker vendor.
func (c *Client) handshake() error {
	hello := Message{
		Type: "client/hello",
		Payload: ClientHello{
			ClientID:        uuid.NewString(),
			Name:            c.config.Name,
			Version:         1,
			Product:         c.config.Product,
			SoftwareVersion: c.config.SoftwareVersion,
		},
	}
	if err := c.sendJSON(hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read gateway/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse gateway/hello: %w", err)
	}
	if msg.Type != "gateway/hello" {
		return fmt.Errorf("expected gateway/hello, got %s", msg.Type)
	}

	payloadBytes, _ := json.Marshal(msg.Payload)
	var gwHello GatewayHello
	if err := json.Unmarshal(payloadBytes, &gwHello); err != nil {
		return fmt.Errorf("failed to parse gateway/hello payload: %w", err)
	}
	c.vendor = parseVendor(gwHello.Vendor)

	log.Printf("gateway: connected to %s (%s tracker)", c.config.GatewayAddr, c.vendor)
	return nil
}

// parseVendor maps the gateway's vendor string to a Vendor tag.
func parseVendor(s string) eyetracker.Vendor {
	switch s {
	case "eyelink":
		return eyetracker.VendorEyeLink
	case "tobii":
		return eyetracker.VendorTobii
	case "gazepoint":
		return eyetracker.VendorGazePoint
	case "mousegaze":
		return eyetracker.VendorMouseGaze
	default:
		return eyetracker.VendorUnknown
	}
}

// sendJSON sends one message.
func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// request sends a correlated request and waits for its response.
func (c *Client) request(msgType string, payload any, timeout time.Duration) (Response, error) {
	id := uuid.NewString()
	ch := make(chan Response, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.sendJSON(Message{Type: msgType, RequestID: id, Payload: payload}); err != nil {
		return Response{}, err
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			return resp, fmt.Errorf("gateway error: %s", resp.Error)
		}
		return resp, nil
	case <-time.After(timeout):
		return Response{}, fmt.Errorf("timeout waiting for %s response", msgType)
	case <-c.ctx.Done():
		return Response{}, fmt.Errorf("connection closed")
	}
}

// readMessages reads and routes incoming messages.
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("gateway: read error: %v", err)
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage routes one incoming message.
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("gateway: failed to parse message: %v", err)
		return
	}

	payloadBytes, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case "gateway/response":
		var resp Response
		json.Unmarshal(payloadBytes, &resp)

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		c.mu.Unlock()
		if ok {
			ch <- resp
		}

	case "tracker/sample":
		var sample Sample
		json.Unmarshal(payloadBytes, &sample)

		c.mu.Lock()
		c.pos = sample.Position
		c.mu.Unlock()

	default:
		log.Printf("gateway: unknown message type: %s", msg.Type)
	}
}

// Vendor reports the tracker make learned at handshake.
func (c *Client) Vendor() eyetracker.Vendor {
	return c.vendor
}

// SetRecording starts or stops sample recording.
func (c *Client) SetRecording(enabled bool) error {
	_, err := c.request("tracker/record", RecordRequest{Enabled: enabled}, requestTimeout)
	return err
}

// ClearEvents drops buffered tracker events.
func (c *Client) ClearEvents() error {
	_, err := c.request("tracker/clear", nil, requestTimeout)
	return err
}

// RunSetup runs the vendor calibration procedure.
func (c *Client) RunSetup(settings eyetracker.Settings) (bool, error) {
	resp, err := c.request("tracker/setup", SetupRequest{Settings: settings}, setupTimeout)
	if err != nil {
		return false, err
	}
	return resp.Passed, nil
}

// Position returns the most recent streamed gaze sample.
func (c *Client) Position() (eyetracker.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return eyetracker.Point{}, fmt.Errorf("not connected")
	}
	return c.pos, nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
