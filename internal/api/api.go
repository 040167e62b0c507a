// Package api wires the dataset and audit systems into the HTTP module
// mounted under the configured base path.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
	"github.com/JaimeStill/parity/pkg/middleware"
	"github.com/JaimeStill/parity/pkg/module"
)

// NewModule builds the API module. The request logger wraps CORS so
// preflight responses are logged too.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	if err := module.ValidatePrefix(cfg.API.BasePath); err != nil {
		return nil, fmt.Errorf("api module: %w", err)
	}

	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.Logger(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
	)

	return m, nil
}
