package shared

import "errors"

// ErrorKind classifies a DomainError for callers that only care about the category
type ErrorKind string

const (
	KindAuth         ErrorKind = "AUTH"
	KindValidation   ErrorKind = "VALIDATION"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindNetwork      ErrorKind = "NETWORK"
	KindPrecondition ErrorKind = "PRECONDITION"
)

// DomainError represents a domain-level error.
// Every failure that crosses a package boundary is normalized into this shape.
type DomainError struct {
	Kind    ErrorKind         `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status,omitempty"` // HTTP status when the error came from the backend
	Fields  map[string]string `json:"fields,omitempty"` // field-level problems, keyed by form field
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind.
// A target with a Code additionally requires the codes to match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithStatus returns a copy of the error carrying the HTTP status
func (e *DomainError) WithStatus(status int) *DomainError {
	cp := *e
	cp.Status = status
	return &cp
}

// WithFields returns a copy of the error carrying field-level messages
func (e *DomainError) WithFields(fields map[string]string) *DomainError {
	cp := *e
	if len(fields) > 0 {
		cp.Fields = make(map[string]string, len(fields))
		for k, v := range fields {
			cp.Fields[k] = v
		}
	}
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewAuthError creates an error for rejected credentials or sessions
func NewAuthError(message string) *DomainError {
	return NewDomainError(KindAuth, "UNAUTHORIZED", message)
}

// NewValidationError creates an error for malformed input, local or echoed by the backend
func NewValidationError(message string) *DomainError {
	return NewDomainError(KindValidation, "INVALID_INPUT", message)
}

// NewNotFoundError creates an error for a missing mutation target
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(KindNotFound, "NOT_FOUND", message)
}

// NewNetworkError creates an error for transport failures and unstructured backend failures
func NewNetworkError(message string) *DomainError {
	return NewDomainError(KindNetwork, "NETWORK", message)
}

// NewPreconditionError creates an error for a violated local invariant
func NewPreconditionError(message string) *DomainError {
	return NewDomainError(KindPrecondition, "PRECONDITION_FAILED", message)
}

// Sentinels for errors.Is matching by kind
var (
	ErrAuth         = &DomainError{Kind: KindAuth, Message: "Authentication failed"}
	ErrValidation   = &DomainError{Kind: KindValidation, Message: "Invalid input provided"}
	ErrNotFound     = &DomainError{Kind: KindNotFound, Message: "Resource not found"}
	ErrNetwork      = &DomainError{Kind: KindNetwork, Message: "Backend unreachable"}
	ErrPrecondition = &DomainError{Kind: KindPrecondition, Message: "Operation not allowed in current state"}
)

// KindOf returns the kind of err, or an empty kind when err is not a DomainError
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of err, falling back when err carries none
func MessageOf(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
