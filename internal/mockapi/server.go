// Package mockapi provides the mock smart-home REST API used as the HTTP
// counterpart to the embedded broker. It serves JWT-authenticated device and
// automation-rule CRUD plus certificate provisioning, backed entirely by
// in-memory state so every test run starts from a clean slate.
//
// The server follows the standard component lifecycle:
//
//	server, err := mockapi.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/smarthome-labs/iot-testkit/internal/certgen"
	"github.com/smarthome-labs/iot-testkit/internal/infrastructure/config"
	"github.com/smarthome-labs/iot-testkit/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the mock API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	CA      *certgen.CA // optional: real certificate provisioning when set
	Version string
}

// Server is the mock API HTTP server.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	ca      *certgen.CA
	version string
	store   *store
	server  *http.Server
	started time.Time
}

// New creates a mock API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Config.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		ca:      deps.CA,
		version: deps.Version,
		store:   newStore(),
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.started = time.Now()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("mock API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("mock API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("mock API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down mock API server: %w", err)
	}
	return nil
}

// Handler returns the router without starting a listener. Used by tests that
// serve the API through httptest.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	return s.buildRouter()
}
