package httpapi

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Lifecycle(t *testing.T) {
	_, _, h := newTestAPI(t)
	srv := NewServer("127.0.0.1:0", h, nil)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerStarted)
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())

	resp, err := http.Get("http://" + srv.Addr() + PathHealth)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, srv.Stop(context.Background()), "stopping twice is a no-op")
}

func TestServer_StopEndsStreams(t *testing.T) {
	_, provider, h := newTestAPI(t)
	srv := NewServer("127.0.0.1:0", h, nil)
	require.NoError(t, srv.Start(context.Background()))

	resp, err := http.Get("http://" + srv.Addr() + PathApplicationsStream)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return provider.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, srv.Stop(context.Background()))
	assert.Zero(t, provider.Subscribers())
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer("256.0.0.1:bad", http.NotFoundHandler(), nil)
	assert.Error(t, srv.Start(context.Background()))
	assert.NoError(t, srv.Stop(context.Background()))
}
