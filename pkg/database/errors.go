package database

import "errors"

// ErrNotReady wraps ping failures, at startup or from a readiness probe.
var ErrNotReady = errors.New("database not ready")
