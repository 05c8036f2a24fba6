package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User is the identity record returned by the backend on login.
// Its shape is backend-defined; the console only reads a few display fields
// and keeps the rest so the record round-trips through storage unchanged.
type User struct {
	attrs map[string]any
}

// NewUser creates a user from backend attributes
func NewUser(attrs map[string]any) *User {
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return &User{attrs: cp}
}

// IsZero reports whether the user carries no attributes
func (u *User) IsZero() bool {
	return u == nil || len(u.attrs) == 0
}

// Get returns a raw attribute
func (u *User) Get(key string) (any, bool) {
	if u == nil {
		return nil, false
	}
	v, ok := u.attrs[key]
	return v, ok
}

// Name returns the best display name available
func (u *User) Name() string {
	for _, key := range []string{"name", "username", "email"} {
		if s := u.stringAttr(key); s != "" {
			return s
		}
	}
	return ""
}

// ID returns the backend identifier, if any
func (u *User) ID() string {
	for _, key := range []string{"id", "user_id", "_id"} {
		if s := u.stringAttr(key); s != "" {
			return s
		}
	}
	return ""
}

// Email returns the email attribute, if any
func (u *User) Email() string {
	return u.stringAttr("email")
}

func (u *User) stringAttr(key string) string {
	v, ok := u.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Clone returns an independent copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	return NewUser(u.attrs)
}

// MarshalJSON encodes the original attribute map
func (u *User) MarshalJSON() ([]byte, error) {
	if u == nil || u.attrs == nil {
		return []byte("null"), nil
	}
	return json.Marshal(u.attrs)
}

// UnmarshalJSON decodes any JSON object; numbers keep their textual form
func (u *User) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	u.attrs = attrs
	return nil
}

// ParseUser decodes a stored user blob.
// A blob that is not a JSON object, or is an empty object, is rejected.
func ParseUser(blob string) (*User, error) {
	u := &User{}
	if err := u.UnmarshalJSON([]byte(blob)); err != nil {
		return nil, err
	}
	if u.IsZero() {
		return nil, fmt.Errorf("decode user: empty user record")
	}
	return u, nil
}
