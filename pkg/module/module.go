// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/parity/pkg/middleware"
)

// Module serves an inner handler under a prefix such as "/api". The prefix
// is removed before the inner handler sees the request.
type Module struct {
	prefix  string
	handler http.Handler
	stack   middleware.Stack

	mu    sync.Mutex
	built http.Handler
}

// New creates a Module. It panics if prefix is not a single path segment
// with a leading slash.
func New(prefix string, handler http.Handler) *Module {
	if err := ValidatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{prefix: prefix, handler: handler}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack.
func (m *Module) Use(fns ...middleware.Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack.Use(fns...)
	m.built = nil
}

// Handler returns the inner handler wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built == nil {
		m.built = m.stack.Apply(m.handler)
	}
	return m.built
}

// ServeHTTP strips the module prefix and dispatches to Handler.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, strip(r, m.prefix))
}

// ValidatePrefix reports whether prefix can be used to mount a module.
func ValidatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case prefix[0] != '/':
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case len(prefix) == 1 || strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}

func strip(r *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	u := new(url.URL)
	*u = *r.URL
	u.Path = path
	u.RawPath = ""

	out := r.Clone(r.Context())
	out.URL = u
	return out
}
