package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/pkg/lifecycle"
)

type httpServer struct {
	http   *http.Server
	logger *slog.Logger
	errs   chan error
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	t := cfg.Timeouts()

	return &httpServer{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       t.Read,
			ReadHeaderTimeout: t.ReadHeader,
			WriteTimeout:      t.Write,
			IdleTimeout:       t.Idle,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger.With("system", "http"),
		errs:   make(chan error, 1),
	}
}

// Start binds the listener so address errors surface immediately, then
// serves in the background. Serve failures are delivered on Errors.
func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}

	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	lc.OnShutdown("http", func(ctx context.Context) error {
		s.logger.Info("draining connections")
		return s.http.Shutdown(ctx)
	})

	return nil
}

// Errors reports a listener failure after Start.
func (s *httpServer) Errors() <-chan error {
	return s.errs
}
