package shared

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to a human-readable problem
type FieldErrors map[string]string

// Valid reports whether no field failed
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// Fields returns the failing field names in a stable order
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MessageFunc resolves the message shown for a failed (field, tag) pair
type MessageFunc func(field, tag, param string) string

// NewValidator returns a validator that reports fields by their `form` tag name
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		return name
	})
	return v
}

// CollectFieldErrors runs v over s and returns every failing field, not just the first
func CollectFieldErrors(v *validator.Validate, s any, msg MessageFunc) FieldErrors {
	errs := FieldErrors{}
	err := v.Struct(s)
	if err == nil {
		return errs
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range validationErrors {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = msg(fe.Field(), fe.Tag(), fe.Param())
	}
	return errs
}
