// Package routes declares handler routes as data so domain packages can
// describe their endpoints without owning the mux.
package routes

import "net/http"

// Group collects routes under a common prefix. Child prefixes nest beneath
// the parent's.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Walk calls fn with the full pattern of every route in the group and its
// children, parents first.
func (g Group) Walk(fn func(pattern string, handler http.HandlerFunc)) {
	g.walk("", fn)
}

func (g Group) walk(parent string, fn func(string, http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.Full(prefix), r.Handler)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

// Patterns lists the full pattern of every route in the group.
func (g Group) Patterns() []string {
	var out []string
	g.Walk(func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

// Register adds every route of the groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.Walk(func(pattern string, handler http.HandlerFunc) {
			mux.Handle(pattern, handler)
		})
	}
}
