package httpwire

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
)

// Response is an outbound envelope: a status line, headers, and an optional
// JSON body.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	500: "Internal Server Error",
}

// StatusText returns the reason phrase for a status code, or "Unknown".
func StatusText(status int) string {
	if t, ok := statusText[status]; ok {
		return t
	}
	return "Unknown"
}

// JSON builds a response with the given status and a JSON-encoded body.
// Marshal failures degrade to a 500 with a fixed message rather than
// crashing the worker.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return &Response{
			Status: 500,
			Body:   []byte(`{"message": "internal error"}`),
		}
	}
	return &Response{Status: status, Body: body}
}

// Write encodes the response to w. Content-Type and Content-Length are
// always emitted so readers can frame the body without relying on EOF.
func (resp *Response) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", resp.Status, StatusText(resp.Status))
	for name, value := range resp.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", name, value)
	}
	if _, ok := resp.Headers["Content-Type"]; !ok {
		b.WriteString("Content-Type: application/json\r\n")
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(resp.Body))
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			return err
		}
	}
	return nil
}

// ReadResponse decodes a response from r. A Content-Length header frames the
// body exactly; without one the body is read until EOF, which matches
// servers that close the connection after responding.
func ReadResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return nil, fmt.Errorf("%w: bad status line %q", ErrMalformed, line)
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad status code %q", ErrMalformed, parts[1])
	}

	resp := &Response{Status: status, Headers: make(map[string]string)}
	if err := readHeaders(r, resp.Headers); err != nil {
		return nil, err
	}

	if cl := resp.Headers[textproto.CanonicalMIMEHeaderKey("Content-Length")]; cl != "" {
		resp.Body, err = readBody(r, resp.Headers)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	resp.Body = body
	return resp, nil
}
