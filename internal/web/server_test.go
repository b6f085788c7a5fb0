package web

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestServerLifecycle(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", NewHandler(exampleService()).Routes(), zaptest.NewLogger(t))
	require.NoError(t, err)
	srv.Start()

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err = http.Get("http://" + srv.Addr().String() + "/healthz")
	assert.Error(t, err)
}

func TestNewServerRejectsBusyAddress(t *testing.T) {
	first, err := NewServer("127.0.0.1:0", http.NotFoundHandler(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	_, err = NewServer(first.Addr().String(), http.NotFoundHandler(), nil)
	assert.Error(t, err)
}
