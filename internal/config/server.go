package config

import (
	"cmp"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "PARITY_SERVER_HOST"
	EnvServerPort              = "PARITY_SERVER_PORT"
	EnvServerReadTimeout       = "PARITY_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "PARITY_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "PARITY_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "PARITY_SERVER_IDLE_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. Timeouts are Go duration
// strings; WriteTimeout must cover the longest audit run.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts are the parsed durations of a validated ServerConfig.
type Timeouts struct {
	Read, ReadHeader, Write, Idle time.Duration
}

// Timeouts parses the timeout fields. Finalize guarantees they parse.
func (c *ServerConfig) Timeouts() Timeouts {
	var t Timeouts
	for _, f := range c.timeoutFields(&t) {
		*f.dst, _ = time.ParseDuration(*f.raw)
	}
	return t
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.Host = cmp.Or(c.Host, "0.0.0.0")
	c.Port = cmp.Or(c.Port, 8080)
	c.ReadTimeout = cmp.Or(c.ReadTimeout, "1m")
	c.ReadHeaderTimeout = cmp.Or(c.ReadHeaderTimeout, "10s")
	c.WriteTimeout = cmp.Or(c.WriteTimeout, "15m")
	c.IdleTimeout = cmp.Or(c.IdleTimeout, "2m")

	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	c.Host = cmp.Or(overlay.Host, c.Host)
	c.Port = cmp.Or(overlay.Port, c.Port)
	c.ReadTimeout = cmp.Or(overlay.ReadTimeout, c.ReadTimeout)
	c.ReadHeaderTimeout = cmp.Or(overlay.ReadHeaderTimeout, c.ReadHeaderTimeout)
	c.WriteTimeout = cmp.Or(overlay.WriteTimeout, c.WriteTimeout)
	c.IdleTimeout = cmp.Or(overlay.IdleTimeout, c.IdleTimeout)
}

func (c *ServerConfig) loadEnv() {
	c.Host = cmp.Or(os.Getenv(EnvServerHost), c.Host)
	if port, err := strconv.Atoi(os.Getenv(EnvServerPort)); err == nil {
		c.Port = port
	}
	c.ReadTimeout = cmp.Or(os.Getenv(EnvServerReadTimeout), c.ReadTimeout)
	c.ReadHeaderTimeout = cmp.Or(os.Getenv(EnvServerReadHeaderTimeout), c.ReadHeaderTimeout)
	c.WriteTimeout = cmp.Or(os.Getenv(EnvServerWriteTimeout), c.WriteTimeout)
	c.IdleTimeout = cmp.Or(os.Getenv(EnvServerIdleTimeout), c.IdleTimeout)
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	var t Timeouts
	for _, f := range c.timeoutFields(&t) {
		d, err := time.ParseDuration(*f.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: negative duration %s", f.name, d)
		}
	}
	return nil
}

type timeoutField struct {
	name string
	raw  *string
	dst  *time.Duration
}

func (c *ServerConfig) timeoutFields(t *Timeouts) []timeoutField {
	return []timeoutField{
		{"read_timeout", &c.ReadTimeout, &t.Read},
		{"read_header_timeout", &c.ReadHeaderTimeout, &t.ReadHeader},
		{"write_timeout", &c.WriteTimeout, &t.Write},
		{"idle_timeout", &c.IdleTimeout, &t.Idle},
	}
}
