// Package guard decides whether protected views may render.
package guard

import (
	"context"
	"sync"

	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/erp/catalog-console/internal/application/session"
	"go.uber.org/zap"
)

// State is the guard's view of the session
type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is the part of the session store the guard reads
type Session interface {
	Loaded() bool
	IsAuthenticated(ctx context.Context) bool
}

// Guard tracks the session state and redirects to login once each time the
// session becomes unauthenticated.
type Guard struct {
	session   Session
	navigator navigation.Navigator
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a Guard in the Loading state
func New(s Session, nav navigation.Navigator, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{session: s, navigator: nav, logger: logger.Named("guard"), state: Loading}
}

// Watch re-evaluates the guard on every session transition
func (g *Guard) Watch(store *session.Store) {
	store.Subscribe(func(session.Event) {
		g.Evaluate(context.Background())
	})
}

// State returns the last evaluated state without re-evaluating
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Evaluate recomputes the state. Nothing happens while the session is loading.
// Entering Unauthenticated issues exactly one navigation to the login view.
func (g *Guard) Evaluate(ctx context.Context) State {
	if !g.session.Loaded() {
		return g.State()
	}

	next := Unauthenticated
	if g.session.IsAuthenticated(ctx) {
		next = Authenticated
	}

	g.mu.Lock()
	prev := g.state
	g.state = next
	g.mu.Unlock()

	if prev != next {
		g.logger.Debug("guard transition", zap.Stringer("from", prev), zap.Stringer("to", next))
		if next == Unauthenticated && g.navigator != nil {
			g.navigator.Navigate(navigation.RouteLogin)
		}
	}
	return next
}
