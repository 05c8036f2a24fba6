package identity

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/erp/catalog-console/internal/domain/shared"
)

// Fixed storage keys for the persisted session
const (
	UserKey       = "user"
	CredentialKey = "token"
)

// ErrStorageClosed is returned by storage drivers used after Close
var ErrStorageClosed = errors.New("session storage closed")

// SessionStorage is durable client-side key/value storage for the session.
// Only the session store writes to it.
type SessionStorage interface {
	// Get returns the value for key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error

	// Close releases the underlying connection
	Close() error
}

// AuthResult is the backend's answer to a successful login
type AuthResult struct {
	User       *User  `json:"user"`
	Credential string `json:"token"`
}

// AccountGateway defines the remote account operations
type AccountGateway interface {
	// Authenticate exchanges credentials for a user record and bearer credential
	Authenticate(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error)

	// RegisterAccount creates a new account
	RegisterAccount(ctx context.Context, reg Registration) (*RegisterAck, error)
}

// RegisterAck is the backend's acknowledgement of a registration
type RegisterAck struct {
	Message string          `json:"message,omitempty"`
	User    *User           `json:"user,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// UnmarshalJSON accepts any JSON value the way shared.Ack does. A "user"
// member is kept only when it is a usable user record.
func (a *RegisterAck) UnmarshalJSON(data []byte) error {
	var base shared.Ack
	if err := base.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = RegisterAck{Message: base.Message, Raw: base.Raw}
	if len(base.Raw) == 0 || base.Raw[0] != '{' {
		return nil
	}

	var body struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(base.Raw, &body); err != nil || len(body.User) == 0 {
		return nil
	}
	if u, err := ParseUser(string(body.User)); err == nil {
		a.User = u
	}
	return nil
}
