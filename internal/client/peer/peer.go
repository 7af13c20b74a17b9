// Package peer implements direct client-to-client message handoff: a small
// listener every online client runs, and the sender side that dials it.
// The server only resolves addresses; message bodies never pass through it.
package peer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"auboutique/internal/common"
	"auboutique/internal/httpwire"
	"auboutique/internal/logging"
)

// Message is the payload of a direct handoff.
type Message struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// Listener accepts peer messages on a local port. It is bound at
// construction so the port can be advertised in the login request before
// any message can arrive.
type Listener struct {
	ln      net.Listener
	handler func(Message)
	logger  logging.Logger
	timeout time.Duration
}

// Listen binds addr (port 0 for an ephemeral port) and returns a Listener
// ready to Run. handler is invoked for every delivered message.
func Listen(addr string, handler func(Message), logger logging.Logger, timeout time.Duration) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{
		ln:      ln,
		handler: handler,
		logger:  logger.With("module", "peer_listener"),
		timeout: timeout,
	}, nil
}

// Port returns the bound port, for advertising in the login request.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Run accepts peer connections until ctx is cancelled. Cancellation closes
// the socket to unblock a pending accept; no inbound connection is needed
// for the shutdown to be noticed.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			conn.Close()
			return nil
		}

		go l.handleConn(ctx, conn)
	}
}

// handleConn serves a single peer connection: one request, one response.
func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if l.timeout > 0 {
		conn.SetDeadline(time.Now().Add(l.timeout))
	}

	req, err := httpwire.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		l.logger.Warn(ctx, "bad peer request", "error", err.Error())
		return
	}

	if req.Method != "POST" || req.Path != "/peer_message" {
		httpwire.JSON(404, map[string]string{"message": "Not found"}).Write(conn)
		return
	}

	var msg Message
	if err := json.Unmarshal(req.Body, &msg); err != nil {
		httpwire.JSON(400, map[string]string{"message": "invalid request body"}).Write(conn)
		return
	}

	l.handler(msg)
	httpwire.JSON(200, map[string]string{"message": "Delivered"}).Write(conn)
}

// Send dials the receiver's advertised address and pushes one message.
// Any dial, write, or response failure is common.ErrDeliveryFailed: the
// message is not retried and not queued here, the caller decides whether
// to fall back to server-side storage.
func Send(ctx context.Context, ip string, port int, msg Message, timeout time.Duration) error {
	addr := net.JoinHostPort(ip, fmt.Sprint(port))

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}
	defer conn.Close()

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req := &httpwire.Request{
		Method:  "POST",
		Path:    "/peer_message",
		Proto:   "HTTP/1.1",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    raw,
	}
	if err := req.Write(conn); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}

	resp, err := httpwire.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("%w: peer answered %d", common.ErrDeliveryFailed, resp.Status)
	}
	return nil
}
