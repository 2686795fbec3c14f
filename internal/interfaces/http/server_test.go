package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RTO-Desk/internal/config"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/handlers"
	"github.com/turtacn/RTO-Desk/internal/testutil"
)

func TestNewServer_UsesConfig(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 9090, ReadTimeout: 2 * time.Second, IdleTimeout: time.Minute}

	s := NewServer(cfg, http.NotFoundHandler(), nil)

	assert.Equal(t, "127.0.0.1:9090", s.srv.Addr)
	assert.Equal(t, 2*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, time.Minute, s.srv.IdleTimeout)
	assert.NotNil(t, s.Handler())
}

func TestServer_ServeAndShutdown(t *testing.T) {
	logger := testutil.NewMockLogger()
	router := NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("test", nil)})
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, router, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"alive"`)

	require.NoError(t, s.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	assert.True(t, logger.HasMessage("info", "HTTP server stopped"))
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: port}, http.NotFoundHandler(), nil)

	assert.Error(t, s.Start())
}
