package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/GoCodeAlone/tyeapps"
)

// ErrServerStarted is returned by Start on a running server.
var ErrServerStarted = errors.New("http server already started")

// Server runs the API on a listener.
type Server struct {
	addr    string
	handler http.Handler
	logger  tyeapps.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewServer creates a server for addr, e.g. "127.0.0.1:8085" or ":0".
func NewServer(addr string, handler http.Handler, logger tyeapps.Logger) *Server {
	if logger == nil {
		logger = tyeapps.NopLogger()
	}
	return &Server{addr: addr, handler: handler, logger: logger}
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrServerStarted
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	// Request contexts derive from baseCtx so Stop also ends open streams.
	baseCtx, cancel := context.WithCancel(context.Background())
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	s.listener = listener
	s.cancel = cancel
	s.done = make(chan struct{})

	server, done := s.server, s.done
	go func() {
		defer close(done)
		s.logger.Info("Starting HTTP server", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down gracefully. It is a no-op when not started.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server, cancel, done := s.server, s.cancel, s.done
	s.server, s.listener, s.cancel, s.done = nil, nil, nil, nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	<-done
	s.logger.Info("HTTP server stopped")
	return nil
}
