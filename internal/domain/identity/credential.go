package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialInfo describes a bearer credential for display purposes.
// The console never verifies the credential; the backend remains the authority.
type CredentialInfo struct {
	Opaque    bool
	Subject   string
	Issuer    string
	ExpiresAt *time.Time
}

// Expired reports whether the credential carries an expiry in the past
func (ci CredentialInfo) Expired(now time.Time) bool {
	return ci.ExpiresAt != nil && now.After(*ci.ExpiresAt)
}

// DescribeCredential decodes a JWT credential without verifying it.
// Credentials that are not JWTs are reported as opaque.
func DescribeCredential(token string) CredentialInfo {
	token = strings.TrimSpace(token)
	if token == "" {
		return CredentialInfo{Opaque: true}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return CredentialInfo{Opaque: true}
	}

	info := CredentialInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info
}
