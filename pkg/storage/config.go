package storage

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
)

// DefaultContainer holds uploaded datasets and reweighted audit output.
const DefaultContainer = "parity"

var containerName = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Config holds Azure Blob Storage connection parameters.
// ConnectionString wins when both are set; ServiceURL authenticates with
// the Azure default credential chain.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env names the environment variables that override each field.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	MaxListSize      string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.ContainerName = cmp.Or(c.ContainerName, DefaultContainer)
	c.MaxListSize = cmp.Or(c.MaxListSize, 50)

	if env != nil {
		c.loadEnv(env)
	}

	c.MaxListSize = min(c.MaxListSize, MaxListCap)
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.ContainerName = cmp.Or(overlay.ContainerName, c.ContainerName)
	c.ConnectionString = cmp.Or(overlay.ConnectionString, c.ConnectionString)
	c.ServiceURL = cmp.Or(overlay.ServiceURL, c.ServiceURL)
	c.MaxListSize = cmp.Or(overlay.MaxListSize, c.MaxListSize)
}

func (c *Config) loadEnv(env *Env) {
	c.ContainerName = cmp.Or(getenv(env.ContainerName), c.ContainerName)
	c.ConnectionString = cmp.Or(getenv(env.ConnectionString), c.ConnectionString)
	c.ServiceURL = cmp.Or(getenv(env.ServiceURL), c.ServiceURL)

	if n, err := strconv.ParseInt(getenv(env.MaxListSize), 10, 32); err == nil && n > 0 {
		c.MaxListSize = int32(n)
	}
}

func (c *Config) validate() error {
	if n := len(c.ContainerName); n < 3 || n > 63 || !containerName.MatchString(c.ContainerName) {
		return fmt.Errorf("container_name %q: want 3-63 lowercase letters, digits or single hyphens", c.ContainerName)
	}

	switch {
	case c.ConnectionString != "":
		return nil
	case c.ServiceURL == "":
		return errors.New("connection_string or service_url required")
	}

	u, err := url.Parse(c.ServiceURL)
	if err != nil {
		return fmt.Errorf("service_url: %w", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("service_url %q: want an absolute http(s) URL", c.ServiceURL)
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
