package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/catalog-console/internal/application/session"
	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccountGateway is a mock implementation of identity.AccountGateway
type MockAccountGateway struct {
	mock.Mock
}

func (m *MockAccountGateway) Authenticate(ctx context.Context, usernameOrEmail, password string) (*identity.AuthResult, error) {
	args := m.Called(ctx, usernameOrEmail, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResult), args.Error(1)
}

func (m *MockAccountGateway) RegisterAccount(ctx context.Context, reg identity.Registration) (*identity.RegisterAck, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.RegisterAck), args.Error(1)
}

func setupAccountService() (*AccountService, *MockAccountGateway, *session.Store) {
	gw := new(MockAccountGateway)
	store := session.NewStore(storage.NewMemoryStorage())
	return NewAccountService(gw, store, nil), gw, store
}

func TestAccountService_Login(t *testing.T) {
	ctx := context.Background()
	form := identity.LoginForm{Username: "ada@example.com", Password: "secret1"}

	t.Run("success starts the session", func(t *testing.T) {
		svc, gw, store := setupAccountService()
		user := identity.NewUser(map[string]any{"name": "Ada"})
		gw.On("Authenticate", mock.Anything, "ada@example.com", "secret1").
			Return(&identity.AuthResult{User: user, Credential: "tok"}, nil)

		errs, err := svc.Login(ctx, form)

		require.NoError(t, err)
		assert.True(t, errs.Valid())
		assert.True(t, store.IsAuthenticated(ctx))
		assert.Equal(t, "Ada", store.User().Name())
	})

	t.Run("invalid form skips the backend", func(t *testing.T) {
		svc, gw, _ := setupAccountService()

		errs, err := svc.Login(ctx, identity.LoginForm{Username: "ada", Password: "1"})

		require.NoError(t, err)
		assert.Equal(t, []string{identity.FieldPassword, identity.FieldUsername}, errs.Fields())
		gw.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		svc, gw, store := setupAccountService()
		gw.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, shared.NewAuthError("Invalid username or password"))

		_, err := svc.Login(ctx, form)

		assert.True(t, errors.Is(err, shared.ErrAuth))
		assert.Equal(t, "Invalid username or password", shared.MessageOf(err, MsgLoginFailed))
		assert.False(t, store.IsAuthenticated(ctx))
	})

	t.Run("incomplete login data", func(t *testing.T) {
		svc, gw, store := setupAccountService()
		gw.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
			Return(&identity.AuthResult{User: nil, Credential: "tok"}, nil)

		_, err := svc.Login(ctx, form)

		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, session.MsgInvalidLoginData, store.LastError())
	})
}

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()
	form := identity.RegisterForm{
		Email:           "ada@example.com",
		Name:            "Ada",
		Phone:           "0123456789",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	t.Run("success", func(t *testing.T) {
		svc, gw, store := setupAccountService()
		gw.On("RegisterAccount", mock.Anything, form.Registration()).
			Return(&identity.RegisterAck{Message: "User registered successfully"}, nil)

		errs, ack, err := svc.Register(ctx, form)

		require.NoError(t, err)
		assert.True(t, errs.Valid())
		assert.Equal(t, "User registered successfully", ack.Message)
		assert.False(t, store.IsAuthenticated(ctx), "registration does not log in")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, gw, _ := setupAccountService()
		gw.On("RegisterAccount", mock.Anything, mock.Anything).
			Return(nil, shared.NewValidationError("User already exists"))

		_, _, err := svc.Register(ctx, form)

		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		svc, gw, _ := setupAccountService()
		bad := form
		bad.ConfirmPassword = "other1"

		errs, _, err := svc.Register(ctx, bad)

		require.NoError(t, err)
		assert.Equal(t, []string{identity.FieldConfirmPassword}, errs.Fields())
		gw.AssertNotCalled(t, "RegisterAccount", mock.Anything, mock.Anything)
	})
}

func TestAccountService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _, store := setupAccountService()
	require.NoError(t, store.Login(ctx, identity.NewUser(map[string]any{"name": "Ada"}), "tok"))

	require.NoError(t, svc.Logout(ctx))

	assert.False(t, store.IsAuthenticated(ctx))
}
