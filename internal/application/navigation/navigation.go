// Package navigation models the console's views and the capability to move between them.
package navigation

import (
	"strings"
	"sync"
)

// Route identifies a console view
type Route string

const (
	RouteCatalog  Route = "/"
	RouteLogin    Route = "/login"
	RouteRegister Route = "/register"
)

// Protected reports whether the route requires an active session
func (r Route) Protected() bool {
	return r == RouteCatalog
}

func (r Route) String() string {
	return string(r)
}

// Resolve maps a request path to a known route. Unknown paths land on the catalog.
func Resolve(path string) Route {
	p := strings.TrimRight(path, "/")
	switch Route(p) {
	case RouteLogin:
		return RouteLogin
	case RouteRegister:
		return RouteRegister
	default:
		return RouteCatalog
	}
}

// Navigator moves the operator to another view
type Navigator interface {
	Navigate(to Route)
}

// Func adapts a function to Navigator
type Func func(to Route)

// Navigate implements Navigator
func (f Func) Navigate(to Route) { f(to) }

// Recorder remembers the most recent navigation request until it is taken.
// The web console turns a pending route into an HTTP redirect.
type Recorder struct {
	mu      sync.Mutex
	pending Route
	count   int
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Navigate implements Navigator
func (r *Recorder) Navigate(to Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = to
	r.count++
}

// Take returns and clears the pending route
func (r *Recorder) Take() (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	to := r.pending
	r.pending = ""
	return to, to != ""
}

// Count returns how many navigations were requested in total
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
