package main

import (
	"net/http"

	"github.com/JaimeStill/parity/internal/api"
	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
	"github.com/JaimeStill/parity/pkg/handlers"
	"github.com/JaimeStill/parity/pkg/middleware"
	"github.com/JaimeStill/parity/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Version  string `json:"version,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter()
	router.Use(
		middleware.RequestID(),
		middleware.Recover(infra.Logger),
	)

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, status{Status: "ok", Version: version})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, status{Status: "starting"})
			return
		}

		if err := infra.Database.Ping(r.Context()); err != nil {
			infra.Logger.Warn("readiness probe failed", "error", err)
			handlers.RespondJSON(w, http.StatusServiceUnavailable, status{
				Status:   "degraded",
				Database: "unreachable",
			})
			return
		}

		handlers.RespondJSON(w, http.StatusOK, status{Status: "ready", Database: "ok"})
	})

	return router
}
