package audits

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/parity/internal/datasets"
	"github.com/JaimeStill/parity/internal/pipeline"
)

// Domain errors for audit operations.
var (
	ErrNotFound     = errors.New("audit not found")
	ErrDuplicate    = errors.New("audit already exists")
	ErrInvalidAudit = errors.New("invalid audit")
	ErrInvalidID    = errors.New("invalid audit id")
)

// MapHTTPStatus maps audit domain errors to appropriate HTTP status codes.
// A run rejected by the pipeline is unprocessable: the request was well formed
// but the dataset cannot be audited with the requested groups or split.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, datasets.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidAudit),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrStageFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
