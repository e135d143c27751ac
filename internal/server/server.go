// package server contains the router, middleware and stub handlers for the local report backend
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const shutdownTimeout = 5 * time.Second

// Server runs a [Stub] behind a [BasicRouter].
type Server struct {
	stub   *Stub
	router *BasicRouter
	logger *log.Logger
}

// New builds the stub backend from the dev_server config section.
func New(cfg shared.DevServerConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger), CORS(""))

	stub := NewStub(StubOpts{
		Hub:        NewStatusHub(logger),
		StepDelay:  cfg.StepDelay,
		StopDelay:  cfg.StopDelay,
		Async:      cfg.Async,
		FailStatus: cfg.FailStatus,
		Logger:     logger,
	})
	stub.Register(router)

	return &Server{stub: stub, router: router, logger: logger}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Stub returns the backend behind the router.
func (s *Server) Stub() *Stub { return s.stub }

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dev server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.stub.abort()
	s.stub.Hub().Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dev server: %w", err)
	}
	s.stub.Wait()

	s.logger.Info("dev server stopped")
	return nil
}

// ListenAndServe listens on addr and calls [Server.Serve].
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
