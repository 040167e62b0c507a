// Package middleware provides the HTTP middleware shared by parity modules:
// request identification, structured request logging, panic recovery and CORS.
package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first entry is outermost.
type Stack struct {
	funcs []Func
}

// Use appends middleware to the stack.
func (s *Stack) Use(fns ...Func) {
	s.funcs = append(s.funcs, fns...)
}

// Len returns the number of middleware in the stack.
func (s *Stack) Len() int {
	return len(s.funcs)
}

// Apply wraps handler so that requests pass through the stack in the order
// the middleware were added.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.funcs) - 1; i >= 0; i-- {
		handler = s.funcs[i](handler)
	}
	return handler
}
