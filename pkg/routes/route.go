package routes

import "net/http"

// Route binds an HTTP method and a pattern, relative to its group, to a
// handler. An empty Pattern addresses the group prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Full returns the ServeMux pattern for the route beneath prefix.
func (r Route) Full(prefix string) string {
	path := prefix + r.Pattern
	if path == "" {
		path = "/"
	}
	return r.Method + " " + path
}
