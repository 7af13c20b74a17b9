package tcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auboutique/internal/httpwire"
	"auboutique/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter(testLogger())
	ctx := context.Background()

	r.Register("POST", "/echo", func(_ context.Context, req *httpwire.Request) *httpwire.Response {
		return httpwire.JSON(200, messageBody{Message: string(req.Body)})
	})
	r.Register("POST", "/boom", func(context.Context, *httpwire.Request) *httpwire.Response {
		panic("boom")
	})

	t.Run("exact match", func(t *testing.T) {
		resp := r.Dispatch(ctx, &httpwire.Request{Method: "POST", Path: "/echo", Body: []byte("hi")})
		require.Equal(t, 200, resp.Status)

		var body messageBody
		require.NoError(t, json.Unmarshal(resp.Body, &body))
		assert.Equal(t, "hi", body.Message)
	})

	t.Run("method is part of the key", func(t *testing.T) {
		resp := r.Dispatch(ctx, &httpwire.Request{Method: "GET", Path: "/echo"})
		assert.Equal(t, 404, resp.Status)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp := r.Dispatch(ctx, &httpwire.Request{Method: "POST", Path: "/nope"})
		assert.Equal(t, 404, resp.Status)
	})

	t.Run("panicking handler becomes 500", func(t *testing.T) {
		resp := r.Dispatch(ctx, &httpwire.Request{Method: "POST", Path: "/boom"})
		assert.Equal(t, 500, resp.Status)
	})
}
