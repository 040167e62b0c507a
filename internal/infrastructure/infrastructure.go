// Package infrastructure assembles the logger, database and blob storage
// shared by the dataset and audit systems, and registers their lifecycle
// hooks.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/pkg/database"
	"github.com/JaimeStill/parity/pkg/lifecycle"
	"github.com/JaimeStill/parity/pkg/storage"
)

// Infrastructure holds the systems every domain module depends on.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// starter is the registration half of database.System and storage.System.
type starter interface {
	Start(lc *lifecycle.Coordinator) error
}

// NewLogger builds the process logger. Format is config.LogFormatJSON or
// anything else for text.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New constructs every system without touching the network; connections
// are verified by the startup hooks Start registers.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(os.Stderr, cfg.Level(), cfg.LogFormat).
		With("version", cfg.Version, "env", cfg.Env())

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(logger),
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// WithLogger returns a shallow copy sharing every system but logging
// through logger.
func (i *Infrastructure) WithLogger(logger *slog.Logger) *Infrastructure {
	scoped := *i
	scoped.Logger = logger
	return &scoped
}

// Start registers the database and storage hooks with the coordinator.
func (i *Infrastructure) Start() error {
	systems := []struct {
		name string
		sys  starter
	}{
		{"database", i.Database},
		{"storage", i.Storage},
	}

	for _, s := range systems {
		if err := s.sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("%s start failed: %w", s.name, err)
		}
	}
	return nil
}
