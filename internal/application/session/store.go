// Package session holds the console's single authenticated session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/erp/catalog-console/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Messages recorded in LastError
const (
	MsgInvalidLoginData = "Invalid login data"
	MsgInvalidUserData  = "Invalid user data. Please login again."
)

// EventType names a session transition
type EventType string

const (
	EventLogin    EventType = "login"
	EventLogout   EventType = "logout"
	EventRestored EventType = "restored"
)

// Event is delivered to subscribers after every transition
type Event struct {
	Type          EventType
	Authenticated bool
}

// Store owns the session's in-memory state and is the only writer of the
// durable session storage.
type Store struct {
	storage identity.SessionStorage
	metrics *telemetry.ClientMetrics
	logger  *zap.Logger

	// writeMu serializes storage mutations; mu guards the fields below
	writeMu   sync.Mutex
	mu        sync.RWMutex
	user      *identity.User
	loaded    bool
	lastError string
	listeners []func(Event)
}

// Option configures a Store
type Option func(*Store)

// WithMetrics counts session transitions on m
func WithMetrics(m *telemetry.ClientMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the store logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l.Named("session") }
}

// NewStore creates an unloaded Store over storage. Call Restore once at startup.
func NewStore(storage identity.SessionStorage, opts ...Option) *Store {
	s := &Store{storage: storage, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every transition.
// fn runs on the goroutine that caused the transition and must not block.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login persists the credential and user, then activates the session.
// Both values are required; otherwise nothing changes and LastError is set.
func (s *Store) Login(ctx context.Context, user *identity.User, credential string) error {
	if user.IsZero() || credential == "" {
		s.setLastError(MsgInvalidLoginData)
		return shared.NewValidationError(MsgInvalidLoginData)
	}

	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.writeMu.Lock()
	err = s.storage.Set(ctx, identity.CredentialKey, credential)
	if err == nil {
		err = s.storage.Set(ctx, identity.UserKey, string(blob))
	}
	if err != nil {
		s.writeMu.Unlock()
		logger.Enrich(ctx, s.logger).Error("failed to persist session", zap.Error(err))
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.user = user.Clone()
	s.lastError = ""
	s.mu.Unlock()
	s.writeMu.Unlock()

	logger.Enrich(ctx, s.logger).Info("session started", zap.String("user", user.Name()))
	s.metrics.RecordSessionEvent(ctx, string(EventLogin))
	s.notify(Event{Type: EventLogin, Authenticated: true})
	return nil
}

// Logout clears the in-memory session and both storage keys. It is idempotent
// and always clears memory even when storage fails.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	err := s.storage.Delete(ctx, identity.UserKey, identity.CredentialKey)
	s.writeMu.Unlock()

	if err != nil {
		logger.Enrich(ctx, s.logger).Error("failed to clear session storage", zap.Error(err))
		err = fmt.Errorf("clear session: %w", err)
	} else {
		logger.Enrich(ctx, s.logger).Info("session ended")
	}
	s.metrics.RecordSessionEvent(ctx, string(EventLogout))
	s.notify(Event{Type: EventLogout, Authenticated: false})
	return err
}

// IsAuthenticated reports whether a user is loaded in memory and the durable
// storage still holds a credential.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	s.mu.RLock()
	hasUser := !s.user.IsZero()
	s.mu.RUnlock()
	if !hasUser {
		return false
	}
	return s.Credential(ctx) != ""
}

// Credential returns the stored bearer credential, or "" when there is none
// or storage cannot be read.
func (s *Store) Credential(ctx context.Context) string {
	token, ok, err := s.storage.Get(ctx, identity.CredentialKey)
	if err != nil {
		logger.Enrich(ctx, s.logger).Warn("failed to read session credential", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// Restore loads the persisted session. A corrupted user record clears both
// keys and returns a ValidationError; a user without a credential is
// removed. The store is marked loaded in every case.
func (s *Store) Restore(ctx context.Context) error {
	log := logger.Enrich(ctx, s.logger)

	s.writeMu.Lock()
	restored, err := s.restoreLocked(ctx, log)
	s.mu.Lock()
	s.user = restored
	s.loaded = true
	s.mu.Unlock()
	s.writeMu.Unlock()

	authenticated := restored != nil
	log.Info("session restored", zap.Bool("authenticated", authenticated))
	s.metrics.RecordSessionEvent(ctx, string(EventRestored))
	s.notify(Event{Type: EventRestored, Authenticated: authenticated})
	return err
}

// restoreLocked reads the persisted session; the caller holds writeMu.
func (s *Store) restoreLocked(ctx context.Context, log *zap.Logger) (*identity.User, error) {
	blob, hasUser, err := s.storage.Get(ctx, identity.UserKey)
	if err != nil {
		return nil, fmt.Errorf("read session user: %w", err)
	}
	token, hasToken, err := s.storage.Get(ctx, identity.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("read session credential: %w", err)
	}
	if !hasUser {
		return nil, nil
	}

	user, perr := identity.ParseUser(blob)
	if perr != nil {
		log.Warn("discarding corrupted session user", zap.NamedError("decode_error", perr))
		if derr := s.storage.Delete(ctx, identity.UserKey, identity.CredentialKey); derr != nil {
			log.Error("failed to clear corrupted session", zap.Error(derr))
		}
		s.setLastError(MsgInvalidUserData)
		return nil, shared.NewValidationError(MsgInvalidUserData)
	}

	if !hasToken || token == "" {
		log.Warn("session user without credential, removing user")
		if derr := s.storage.Delete(ctx, identity.UserKey); derr != nil {
			log.Error("failed to remove orphaned session user", zap.Error(derr))
		}
		return nil, nil
	}
	return user, nil
}

// User returns a copy of the current user, or nil
func (s *Store) User() *identity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Loaded reports whether Restore has completed
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LastError returns the last recorded session problem, or ""
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// ClearLastError forgets the recorded session problem once it has been shown
func (s *Store) ClearLastError() {
	s.setLastError("")
}

func (s *Store) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func (s *Store) notify(e Event) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(e)
	}
}
