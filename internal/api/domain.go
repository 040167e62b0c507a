package api

import (
	"github.com/JaimeStill/parity/internal/audits"
	"github.com/JaimeStill/parity/internal/datasets"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Datasets datasets.System
	Audits   audits.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	datasetsSystem := datasets.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	auditsSystem := audits.New(
		runtime.Database.Connection(),
		runtime.Audit,
		runtime.Logger,
		runtime.Pagination,
		runtime.Storage,
		datasetsSystem,
	)

	return &Domain{
		Datasets: datasetsSystem,
		Audits:   auditsSystem,
	}
}
