// Package pagination carries page requests from HTTP queries and request
// bodies down to repositories, and page results back up.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds the page sizes clients may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv names the environment variables that override Config fields.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment overrides and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.DefaultPageSize = positive(c.DefaultPageSize, 20)
	c.MaxPageSize = positive(c.MaxPageSize, 100)

	if env != nil {
		envInt(env.DefaultPageSize, &c.DefaultPageSize)
		envInt(env.MaxPageSize, &c.MaxPageSize)
	}

	switch {
	case c.DefaultPageSize < 1:
		return fmt.Errorf("default_page_size must be positive")
	case c.MaxPageSize < 1:
		return fmt.Errorf("max_page_size must be positive")
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size (%d) cannot exceed max_page_size (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// Merge applies positive values from overlay.
func (c *Config) Merge(overlay *Config) {
	c.DefaultPageSize = positive(overlay.DefaultPageSize, c.DefaultPageSize)
	c.MaxPageSize = positive(overlay.MaxPageSize, c.MaxPageSize)
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func envInt(name string, dst *int) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}
