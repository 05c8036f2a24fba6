package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		form   LoginForm
		fields []string
	}{
		{"valid", LoginForm{Username: "ada@example.com", Password: "secret1"}, nil},
		{"missing both", LoginForm{}, []string{FieldPassword, FieldUsername}},
		{"bad email", LoginForm{Username: "ada", Password: "secret1"}, []string{FieldUsername}},
		{"short password", LoginForm{Username: "ada@example.com", Password: "123"}, []string{FieldPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.form.Validate()
			if tt.fields == nil {
				assert.True(t, errs.Valid())
				return
			}
			assert.Equal(t, tt.fields, errs.Fields())
		})
	}
}

func TestRegisterForm_Validate(t *testing.T) {
	valid := RegisterForm{
		Email:           "ada@example.com",
		Name:            "Ada",
		Phone:           "0123456789",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	t.Run("valid", func(t *testing.T) {
		assert.True(t, valid.Validate().Valid())
	})

	t.Run("reports all failing fields", func(t *testing.T) {
		form := RegisterForm{Email: "nope", Name: "A", Phone: "12ab", Password: "123", ConfirmPassword: "321"}

		errs := form.Validate()

		require.Len(t, errs, 5)
		assert.Equal(t, "Invalid email address", errs[FieldEmail])
		assert.Equal(t, "Name must be at least 2 characters", errs[FieldFullName])
		assert.Equal(t, "Please enter a valid phone number (10-15 digits)", errs[FieldPhone])
		assert.Equal(t, "Password must be at least 6 characters", errs[FieldPassword])
		assert.Equal(t, "Passwords do not match", errs[FieldConfirmPassword])
	})

	t.Run("phone length bounds", func(t *testing.T) {
		f := valid
		f.Phone = "123456789"
		assert.Contains(t, f.Validate(), FieldPhone)
		f.Phone = "1234567890123456"
		assert.Contains(t, f.Validate(), FieldPhone)
		f.Phone = "123456789012345"
		assert.True(t, f.Validate().Valid())
	})

	t.Run("registration body uses email as username", func(t *testing.T) {
		reg := valid.Registration()
		assert.Equal(t, Registration{Username: "ada@example.com", Password: "secret1", Name: "Ada", Phone: "0123456789"}, reg)
	})
}
