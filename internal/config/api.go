package config

import (
	"cmp"
	"fmt"
	"os"

	"github.com/JaimeStill/parity/pkg/formatting"
	"github.com/JaimeStill/parity/pkg/middleware"
	"github.com/JaimeStill/parity/pkg/module"
	"github.com/JaimeStill/parity/pkg/pagination"
)

const (
	EnvAPIBasePath      = "PARITY_API_BASE_PATH"
	EnvAPIMaxUploadSize = "PARITY_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = 25 << 20
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PARITY_CORS_ENABLED",
	Origins:          "PARITY_CORS_ORIGINS",
	AllowedMethods:   "PARITY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PARITY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PARITY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PARITY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PARITY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PARITY_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds the API module's mount point, upload limit, CORS and
// pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes caps dataset uploads. An unparseable size falls back
// to 25MB.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil || size <= 0 {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.BasePath = cmp.Or(os.Getenv(EnvAPIBasePath), c.BasePath, "/api")
	c.MaxUploadSize = cmp.Or(os.Getenv(EnvAPIMaxUploadSize), c.MaxUploadSize, "25MB")

	if err := module.ValidatePrefix(c.BasePath); err != nil {
		return fmt.Errorf("base_path: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	c.BasePath = cmp.Or(overlay.BasePath, c.BasePath)
	c.MaxUploadSize = cmp.Or(overlay.MaxUploadSize, c.MaxUploadSize)

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
