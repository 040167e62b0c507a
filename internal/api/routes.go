package api

import (
	"net/http"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	artifacts := newArtifactHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)

	routes.Register(
		mux,
		domain.Datasets.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Audits.Handler().Routes(),
		artifacts.routes(),
	)
}
