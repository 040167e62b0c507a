package datasets

import (
	"errors"
	"net/http"
)

// Domain errors for dataset operations.
var (
	ErrNotFound       = errors.New("dataset not found")
	ErrDuplicate      = errors.New("dataset already exists")
	ErrInUse          = errors.New("dataset is referenced by audits")
	ErrFileTooLarge   = errors.New("file exceeds maximum upload size")
	ErrInvalidDataset = errors.New("invalid dataset")
	ErrInvalidID      = errors.New("invalid dataset id")
)

// MapHTTPStatus maps dataset domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidDataset), errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
