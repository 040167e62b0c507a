package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
)

// Server owns the process-wide systems and the HTTP listener.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
	fatal chan error
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	infra.Logger.Info("server initialized", "addr", cfg.Server.Addr())

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
		fatal: make(chan error, 2),
	}, nil
}

// Logger returns the configured process logger.
func (s *Server) Logger() *slog.Logger {
	return s.infra.Logger
}

// Start registers infrastructure hooks and opens the listener, then runs the
// startup hooks in the background. /readyz reports 503 until they finish; a
// failed startup is delivered on Errors.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	lc := s.infra.Lifecycle
	go func() {
		if err := lc.Startup(lc.Context()); err != nil {
			s.fatal <- fmt.Errorf("startup: %w", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	go func() {
		if err := <-s.http.Errors(); err != nil {
			s.fatal <- fmt.Errorf("serve: %w", err)
		}
	}()

	return nil
}

// Errors delivers the first condition that should stop the process.
func (s *Server) Errors() <-chan error {
	return s.fatal
}

// Shutdown runs the lifecycle shutdown hooks, HTTP listener first.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
