package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := map[string]Route{
		"/":          RouteCatalog,
		"":           RouteCatalog,
		"/login":     RouteLogin,
		"/login/":    RouteLogin,
		"/register":  RouteRegister,
		"/whatever":  RouteCatalog,
		"/login/xyz": RouteCatalog,
	}
	for path, want := range tests {
		assert.Equal(t, want, Resolve(path), path)
	}
}

func TestRoute_Protected(t *testing.T) {
	assert.True(t, RouteCatalog.Protected())
	assert.False(t, RouteLogin.Protected())
	assert.False(t, RouteRegister.Protected())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	_, ok := r.Take()
	assert.False(t, ok)

	r.Navigate(RouteCatalog)
	r.Navigate(RouteLogin)

	to, ok := r.Take()
	assert.True(t, ok)
	assert.Equal(t, RouteLogin, to)
	assert.Equal(t, 2, r.Count())

	_, ok = r.Take()
	assert.False(t, ok)
}

func TestFunc(t *testing.T) {
	var got Route
	var n Navigator = Func(func(to Route) { got = to })
	n.Navigate(RouteRegister)
	assert.Equal(t, RouteRegister, got)
}
