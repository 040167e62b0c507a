package api

import (
	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
	"github.com/JaimeStill/parity/pkg/pagination"
)

// Runtime is the infrastructure as seen by the API module: the shared
// systems, a module-scoped logger, and the settings the domain systems read.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Audit      config.AuditConfig
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: infra.WithLogger(infra.Logger.With("module", "api")),
		Pagination:     cfg.API.Pagination,
		Audit:          cfg.Audit,
	}
}
