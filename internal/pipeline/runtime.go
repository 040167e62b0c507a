package pipeline

import "log/slog"

// Runtime bundles the dependencies an audit run requires.
type Runtime struct {
	Logger *slog.Logger
}

// NewRuntime returns a runtime logging through logger, or discarding output when logger is nil.
func NewRuntime(logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runtime{Logger: logger.With("system", "pipeline")}
}
