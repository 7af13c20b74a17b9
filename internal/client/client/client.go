// Package client implements the API client for the coordination server: it
// speaks the httpwire envelope over a single TCP connection and maps the
// server's embedded-message errors back to sentinel errors.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"auboutique/internal/httpwire"
)

// ErrUnavailable reports that the server could not be reached or the
// connection broke mid-request.
var ErrUnavailable = errors.New("server unavailable")

// ErrServerFault reports a non-200 response from the server.
var ErrServerFault = errors.New("server fault")

// Client talks to the coordination server. A single connection is reused
// across requests and re-dialed after a failure; methods are safe for
// concurrent use but requests are serialized, matching the one-at-a-time
// nature of the protocol.
type Client struct {
	serverAddr string
	timeout    time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

func New(serverAddr string, timeout time.Duration) *Client {
	return &Client{serverAddr: serverAddr, timeout: timeout}
}

// Close drops the connection. A later request re-dials.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drop()
}

// drop must be called with the lock held.
func (c *Client) drop() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// dial must be called with the lock held.
func (c *Client) dial() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.serverAddr, c.timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// do sends one request and decodes the response body into out (when out is
// non-nil). The connection is dropped on any transport failure so the next
// request starts fresh.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dial(); err != nil {
		return err
	}

	req := &httpwire.Request{
		Method:  method,
		Path:    path,
		Proto:   "HTTP/1.1",
		Headers: map[string]string{"Content-Type": "application/json"},
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req.Body = raw
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)

	if err := req.Write(c.conn); err != nil {
		c.drop()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := httpwire.ReadResponse(c.reader)
	if err != nil {
		c.drop()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.Status != 200 {
		// the server closes the connection after 400/500 responses
		c.drop()
		return fmt.Errorf("%w: %d %s", ErrServerFault, resp.Status, httpwire.StatusText(resp.Status))
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
