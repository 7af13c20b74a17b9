// Package httpwire implements the textual request/response envelope spoken
// between AUBoutique clients and the coordination server:
//
//	METHOD PATH HTTP/1.1\r\n
//	Header: value\r\n
//	\r\n
//	<body of Content-Length bytes>
//
// The envelope looks like HTTP but is deliberately a fixed subset of it:
// routes are verb-shaped, bodies are JSON, and framing relies on an explicit
// Content-Length. Bodies are read with io.ReadFull until the declared length
// has arrived, so a message may be split across any number of TCP segments.
package httpwire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
)

// ErrMalformed reports an envelope that cannot be decoded: a bad request
// line, a bad header line, or a missing header/body separator.
var ErrMalformed = errors.New("malformed request")

// MaxBodyBytes caps the declared Content-Length. Anything larger is treated
// as malformed rather than buffered.
const MaxBodyBytes = 1 << 20

// Request is a decoded inbound envelope.
type Request struct {
	Method  string
	Path    string
	Proto   string
	Headers map[string]string
	Body    []byte
}

// Header returns the value for the given header name, case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// ReadRequest decodes a single request from r. It returns io.EOF when the
// peer closed the connection cleanly before sending anything, and
// ErrMalformed for any framing violation. Multiple requests may be decoded
// from the same reader in sequence.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformed, line)
	}

	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Proto:   parts[2],
		Headers: make(map[string]string),
	}

	if err := readHeaders(r, req.Headers); err != nil {
		return nil, err
	}

	req.Body, err = readBody(r, req.Headers)
	if err != nil {
		return nil, err
	}

	return req, nil
}

// Write encodes the request to w in wire format. A Content-Length header is
// emitted whenever a body is present.
func (r *Request) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", r.Method, r.Path, r.Proto)
	for name, value := range r.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", name, value)
	}
	if len(r.Body) > 0 {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return err
		}
	}
	return nil
}

// readLine reads one \r\n-terminated line. A bare \n terminator is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", io.EOF
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: unterminated line", ErrMalformed)
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readHeaders consumes header lines up to and including the blank separator
// line. Header names are canonicalized so lookups are case-insensitive.
func readHeaders(r *bufio.Reader, headers map[string]string) error {
	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: missing header/body separator", ErrMalformed)
			}
			return err
		}
		if line == "" {
			return nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return fmt.Errorf("%w: bad header line %q", ErrMalformed, line)
		}
		headers[textproto.CanonicalMIMEHeaderKey(name)] = strings.TrimSpace(value)
	}
}

// readBody reads exactly Content-Length bytes, looping until they all
// arrive. No Content-Length means no body.
func readBody(r *bufio.Reader, headers map[string]string) ([]byte, error) {
	cl := headers[textproto.CanonicalMIMEHeaderKey("Content-Length")]
	if cl == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 || n > MaxBodyBytes {
		return nil, fmt.Errorf("%w: bad content length %q", ErrMalformed, cl)
	}
	if n == 0 {
		return nil, nil
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: short body: %v", ErrMalformed, err)
	}
	return body, nil
}
