package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/parity/pkg/middleware"
)

// Router dispatches by first path segment to mounted modules and falls back
// to a ServeMux for everything else (health probes, for instance). Router
// middleware wraps both.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
	stack   middleware.Stack
}

func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// Use appends middleware applied to every request the router handles.
func (r *Router) Use(fns ...middleware.Func) {
	r.stack.Use(fns...)
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers m under its prefix. Mounting two modules on the same
// prefix panics.
func (r *Router) Mount(m *Module) {
	if _, exists := r.modules[m.prefix]; exists {
		panic(fmt.Sprintf("module already mounted at %s", m.prefix))
	}
	r.modules[m.prefix] = m
}

// Handler returns the router wrapped in its middleware.
func (r *Router) Handler() http.Handler {
	return r.stack.Apply(http.HandlerFunc(r.dispatch))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Handler().ServeHTTP(w, req)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	if m, ok := r.modules[segment(req.URL.Path)]; ok {
		m.ServeHTTP(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}

func segment(path string) string {
	rest, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return "/" + rest
}
