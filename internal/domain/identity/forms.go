package identity

import (
	"sync"

	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// Form field names used as FieldErrors keys
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldFullName        = "name"
	FieldPhone           = "phone"
)

// LoginForm holds the values submitted on the login view
type LoginForm struct {
	Username string `form:"username" validate:"required,account_email"`
	Password string `form:"password" validate:"required,min=6"`
}

// RegisterForm holds the values submitted on the registration view
type RegisterForm struct {
	Email           string `form:"email" validate:"required,account_email"`
	Name            string `form:"name" validate:"required,min=2"`
	Phone           string `form:"phone" validate:"required,phone_digits"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

// Registration is the request body for account creation
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// Registration converts the form into the backend request body
func (f RegisterForm) Registration() Registration {
	return Registration{
		Username: f.Email,
		Password: f.Password,
		Name:     f.Name,
		Phone:    f.Phone,
	}
}

var (
	formValidator     *validator.Validate
	formValidatorOnce sync.Once
)

func getFormValidator() *validator.Validate {
	formValidatorOnce.Do(func() {
		v := shared.NewValidator()
		_ = v.RegisterValidation("account_email", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("phone_digits", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		formValidator = v
	})
	return formValidator
}

// Validate checks the login form
func (f LoginForm) Validate() shared.FieldErrors {
	return shared.CollectFieldErrors(getFormValidator(), f, formMessage)
}

// Validate checks the registration form
func (f RegisterForm) Validate() shared.FieldErrors {
	return shared.CollectFieldErrors(getFormValidator(), f, formMessage)
}

func formMessage(field, tag, param string) string {
	switch field {
	case FieldUsername, FieldEmail:
		if tag == "required" {
			return "Email is required"
		}
		return "Invalid email address"
	case FieldPassword:
		if tag == "required" {
			return "Password is required"
		}
		return "Password must be at least " + param + " characters"
	case FieldConfirmPassword:
		if tag == "required" {
			return "Please confirm your password"
		}
		return "Passwords do not match"
	case FieldFullName:
		if tag == "required" {
			return "Full name is required"
		}
		return "Name must be at least " + param + " characters"
	case FieldPhone:
		if tag == "required" {
			return "Phone number is required"
		}
		return "Please enter a valid phone number (10-15 digits)"
	default:
		return "Invalid value"
	}
}
