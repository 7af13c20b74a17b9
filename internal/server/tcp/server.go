// Package tcp implements the server's transport: a raw TCP listener
// speaking the httpwire envelope, one goroutine per connection, with an
// exact-match router in front of the domain handlers.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"auboutique/internal/httpwire"
	"auboutique/internal/logging"
)

type ctxKey int

const ctxKeyRemoteIP ctxKey = iota

// remoteIP returns the connection's remote IP stored by handleConn, or ""
// outside a connection context.
func remoteIP(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKeyRemoteIP).(string)
	return ip
}

// Server accepts connections and serves the wire protocol over them. A
// connection carries any number of requests in sequence; each request gets
// fresh read/write deadlines.
type Server struct {
	address      string
	router       *Router
	logger       logging.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewServer(address string, handlers *Handlers, logger logging.Logger, readTimeout, writeTimeout time.Duration) *Server {
	router := NewRouter(logger)
	handlers.RegisterRoutes(router)

	return &Server{
		address:      address,
		router:       router,
		logger:       logger.With("module", "tcp_server"),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled. Cancellation
// closes the listener, which unblocks a pending Accept; the ctx is checked
// again after every accept so shutdown never waits for a new connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping TCP server...")
		ln.Close()
	}()

	s.logger.Info(ctx, "Starting TCP server", "address", ln.Addr().String())

	for {
		conn, err := ln.Accept()
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

		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
	logger.Info(ctx, "client connected")

	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		ctx = context.WithValue(ctx, ctxKeyRemoteIP, host)
	}

	reader := bufio.NewReader(conn)
	for {
		if s.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}

		req, err := httpwire.ReadRequest(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info(ctx, "client disconnected")
				return
			}
			if errors.Is(err, httpwire.ErrMalformed) {
				logger.Warn(ctx, "malformed request", "error", err.Error())
				s.write(ctx, conn, logger, httpwire.JSON(400, messageBody{Message: "malformed request"}))
				return
			}
			logger.Warn(ctx, "read error", "error", err.Error())
			return
		}

		resp := s.router.Dispatch(ctx, req)
		if !s.write(ctx, conn, logger, resp) {
			return
		}

		// A store fault poisons only its own connection; other workers
		// keep serving.
		if resp.Status == 500 {
			return
		}
	}
}

func (s *Server) write(ctx context.Context, conn net.Conn, logger logging.Logger, resp *httpwire.Response) bool {
	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := resp.Write(conn); err != nil {
		logger.Warn(ctx, "write error", "error", err.Error())
		return false
	}
	return true
}
