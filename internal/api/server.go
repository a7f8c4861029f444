// Package api exposes the panel-facing HTTP and WebSocket surface:
// room and device operations, the shared modal and form state machines,
// and a push channel broadcasting store mutations and device errors to
// every attached panel.
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/homedeck/homedeck/internal/device"
	"github.com/homedeck/homedeck/internal/events"
	"github.com/homedeck/homedeck/internal/form"
	"github.com/homedeck/homedeck/internal/infrastructure/config"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
	"github.com/homedeck/homedeck/internal/modal"
	"github.com/homedeck/homedeck/internal/room"
)

// gracefulShutdownTimeout bounds the wait for in-flight requests during
// shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WSConfig
	Logger  *logging.Logger
	Rooms   *room.Store
	Devices *device.Store
	Form    *form.Coordinator
	Modal   *modal.Manager
	Bus     *events.Bus
	History *device.StateHistory // optional
	Version string
}

// Server is the panel-facing HTTP server.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WSConfig
	logger  *logging.Logger
	rooms   *room.Store
	devices *device.Store
	form    *form.Coordinator
	modal   *modal.Manager
	bus     *events.Bus
	history *device.StateHistory
	version string

	server      *http.Server
	hub         *Hub
	cancel      context.CancelFunc
	unsubscribe func()
}

// New creates an API server. The server does not listen until Start.
//
// Parameters:
//   - deps: Required dependencies; History may be nil
//
// Returns:
//   - *Server: Configured server
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Rooms == nil || deps.Devices == nil {
		return nil, errors.New("api: room and device stores are required")
	}
	if deps.Form == nil || deps.Modal == nil {
		return nil, errors.New("api: form coordinator and modal manager are required")
	}
	if deps.Bus == nil {
		return nil, errors.New("api: event bus is required")
	}

	s := &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger.With("component", "api"),
		rooms:   deps.Rooms,
		devices: deps.Devices,
		form:    deps.Form,
		modal:   deps.Modal,
		bus:     deps.Bus,
		history: deps.History,
		version: deps.Version,
	}
	s.hub = NewHub(deps.WS, s.logger)

	return s, nil
}

// Start begins listening and runs the WebSocket hub. It returns once
// the listener is up; request serving continues in the background.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.hub.Run(runCtx)

	// Validation failures reach panels over the push channel.
	s.unsubscribe = s.bus.Subscribe(func(ev events.DeviceError) {
		s.hub.Broadcast(EventDeviceError, ev)
	})

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		return fmt.Errorf("api listen on %s: %w", addr, err)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server failed", "error", err)
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return nil
}

// NotifyStateChanged broadcasts a full state snapshot to every panel.
// Registered as the stores' notifier so any mutation fans out.
func (s *Server) NotifyStateChanged() {
	s.hub.Broadcast(EventState, s.stateSnapshot())
}

// Close shuts the server down, draining in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

// stateSnapshot assembles the combined view panels render from.
func (s *Server) stateSnapshot() map[string]any {
	noticeMsg, noticeFading := s.rooms.Notices().Snapshot()
	modalMode, modalDevice := s.modal.Snapshot()

	return map[string]any{
		"rooms":       s.rooms.Rooms(),
		"active_room": s.rooms.Active(),
		"devices":     s.devices.Devices(),
		"load_error":  s.devices.LoadError(),
		"notice":      map[string]any{"message": noticeMsg, "fading": noticeFading},
		"form":        s.form.Snapshot(),
		"modal":       map[string]any{"mode": modalMode, "device": modalDevice},
	}
}
