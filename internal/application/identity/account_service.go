// Package identity implements the login, registration and logout flows.
package identity

import (
	"context"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// User-visible messages
const (
	MsgLoginFailed      = "Failed to login. Please try again."
	MsgRegisterFailed   = "Failed to register. Please try again."
	MsgRegisterComplete = "Registration successful! Redirecting to login..."
)

// SessionWriter is the part of the session store the account flows change
type SessionWriter interface {
	Login(ctx context.Context, user *identity.User, credential string) error
	Logout(ctx context.Context) error
}

// AccountService handles account operations
type AccountService struct {
	gateway identity.AccountGateway
	session SessionWriter
	logger  *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(gateway identity.AccountGateway, session SessionWriter, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{gateway: gateway, session: session, logger: logger.Named("account")}
}

// Login validates the form, authenticates against the backend and starts
// the session. Field errors are returned without contacting the backend.
func (s *AccountService) Login(ctx context.Context, form identity.LoginForm) (shared.FieldErrors, error) {
	if errs := form.Validate(); !errs.Valid() {
		return errs, nil
	}

	log := logger.Enrich(ctx, s.logger)
	log.Info("Login attempt", zap.String("username", form.Username))

	result, err := s.gateway.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		log.Warn("Login rejected", zap.String("username", form.Username), zap.String("kind", string(shared.KindOf(err))))
		return nil, err
	}

	if err := s.session.Login(ctx, result.User, result.Credential); err != nil {
		log.Error("Failed to start session", zap.Error(err))
		return nil, err
	}

	info := identity.DescribeCredential(result.Credential)
	fields := []zap.Field{zap.String("username", form.Username), zap.Bool("opaque_credential", info.Opaque)}
	if info.ExpiresAt != nil {
		fields = append(fields, zap.Time("credential_expires_at", *info.ExpiresAt))
	}
	log.Info("Login successful", fields...)
	return nil, nil
}

// Register validates the form and creates the account. It does not log in.
func (s *AccountService) Register(ctx context.Context, form identity.RegisterForm) (shared.FieldErrors, *identity.RegisterAck, error) {
	if errs := form.Validate(); !errs.Valid() {
		return errs, nil, nil
	}

	log := logger.Enrich(ctx, s.logger)
	ack, err := s.gateway.RegisterAccount(ctx, form.Registration())
	if err != nil {
		log.Warn("Registration rejected", zap.String("email", form.Email), zap.String("kind", string(shared.KindOf(err))))
		return nil, nil, err
	}

	log.Info("Account registered", zap.String("email", form.Email))
	return nil, ack, nil
}

// Logout ends the session
func (s *AccountService) Logout(ctx context.Context) error {
	logger.Enrich(ctx, s.logger).Info("Logout")
	return s.session.Logout(ctx)
}
