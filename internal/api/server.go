// Package api provides the HTTP REST API and WebSocket server for the
// iotzy bridge.
//
// It exposes the sensed state snapshot, runtime settings (read and
// patch), the recent event log, and a WebSocket stream of state changes
// for dashboards.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iotzy/iotzy-bridge/internal/events"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/config"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/logging"
	"github.com/iotzy/iotzy-bridge/internal/settings"
	"github.com/iotzy/iotzy-bridge/internal/state"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// stateWatchInterval is how often the server checks the state store for
// changes to push over WebSocket.
const stateWatchInterval = 250 * time.Millisecond

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Settings *settings.Store
	State    *state.Store
	Events   *events.Repository
	Version  string
}

// Server is the bridge's HTTP API server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	settings *settings.Store
	state    *state.Store
	events   *events.Repository
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates an API server with the given dependencies. The server is
// not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	if deps.State == nil {
		return nil, fmt.Errorf("state store is required")
	}
	// Events is optional: without it GET /events returns 404.

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		settings: deps.Settings,
		state:    deps.State,
		events:   deps.Events,
		version:  deps.Version,
	}, nil
}

// Start sets up the router, starts the WebSocket hub and the state
// watcher, and launches the HTTP listener in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.logger)
	go s.hub.Run(srvCtx)
	go s.watchState(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server. It waits up to 10 seconds
// for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// watchState polls the state store and broadcasts a state event to
// WebSocket clients whenever the snapshot changes.
func (s *Server) watchState(ctx context.Context) {
	ticker := time.NewTicker(stateWatchInterval)
	defer ticker.Stop()

	var last state.Snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.state.Snapshot()
			if snapshotsEqual(snap, last) {
				continue
			}
			last = snap
			s.hub.Broadcast("state", snap)
		}
	}
}

// snapshotsEqual compares two snapshots field by field; the pointer
// fields compare by value.
func snapshotsEqual(a, b state.Snapshot) bool {
	return a.Presence == b.Presence &&
		a.LampState == b.LampState &&
		floatPtrEqual(a.Temperature, b.Temperature) &&
		floatPtrEqual(a.Brightness, b.Brightness) &&
		timePtrEqual(a.LastSeen, b.LastSeen)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
