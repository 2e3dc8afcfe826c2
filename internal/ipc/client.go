package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tilestate/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithPath(socketPath)
}

// NewClientWithPath creates a client for a specific socket.
func NewClientWithPath(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends cmd with an optional payload and decodes the response data
// into out when out is not nil.
func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = raw
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetOutputs retrieves output information
func (c *Client) GetOutputs() (*OutputsData, error) {
	var data OutputsData
	if err := c.call(CommandGetOutputs, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListToplevels retrieves every managed window with its state buffers.
func (c *Client) ListToplevels() (*ToplevelsData, error) {
	var data ToplevelsData
	if err := c.call(CommandListToplevels, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListLayouts retrieves available layouts and current selection.
func (c *Client) ListLayouts() (*LayoutsData, error) {
	var data LayoutsData
	if err := c.call(CommandListLayouts, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) transaction(cmd CommandType, payload any) (*TransactionData, error) {
	var data TransactionData
	if err := c.call(cmd, payload, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) Move(p MovePayload) (*TransactionData, error) {
	return c.transaction(CommandMove, p)
}

func (c *Client) Place(p PlacePayload) (*TransactionData, error) {
	return c.transaction(CommandPlace, p)
}

func (c *Client) Resize(p ResizePayload) (*TransactionData, error) {
	return c.transaction(CommandResize, p)
}

// Swap exchanges two windows in one transaction.
func (c *Client) Swap(p SwapPayload) (*TransactionData, error) {
	return c.transaction(CommandSwap, p)
}

func (c *Client) Maximize(p MaximizePayload) (*TransactionData, error) {
	return c.transaction(CommandMaximize, p)
}

func (c *Client) Fullscreen(p FullscreenPayload) (*TransactionData, error) {
	return c.transaction(CommandFullscreen, p)
}

// Float takes a window out of the grid.
func (c *Client) Float(p FloatPayload) (*TransactionData, error) {
	return c.transaction(CommandFloat, p)
}

// Tile lays out the windows of an output with a layout.
func (c *Client) Tile(p TilePayload) (*TransactionData, error) {
	return c.transaction(CommandTile, p)
}

func (c *Client) SendToOutput(p SendToOutputPayload) (*TransactionData, error) {
	return c.transaction(CommandSendToOutput, p)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
