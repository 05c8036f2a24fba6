package gateway

import (
	"context"
	"net/http"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/domain/shared"
)

var _ identity.AccountGateway = (*Client)(nil)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authenticate implements identity.AccountGateway
func (c *Client) Authenticate(ctx context.Context, usernameOrEmail, password string) (*identity.AuthResult, error) {
	var result identity.AuthResult
	if err := c.do(ctx, opLogin, http.MethodPost, "/auth/login", loginRequest{usernameOrEmail, password}, &result); err != nil {
		return nil, err
	}
	if result.User.IsZero() || result.Credential == "" {
		return nil, shared.NewAuthError("Invalid response from server. Missing token or user data.")
	}
	return &result, nil
}

// RegisterAccount implements identity.AccountGateway
func (c *Client) RegisterAccount(ctx context.Context, reg identity.Registration) (*identity.RegisterAck, error) {
	var ack identity.RegisterAck
	if err := c.do(ctx, opRegister, http.MethodPost, "/auth/register", reg, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
