package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/erp/catalog-console/internal/domain/shared"
)

// KindForStatus maps a non-2xx HTTP status to an error kind
func KindForStatus(status int) shared.ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.KindAuth
	case http.StatusNotFound:
		return shared.KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return shared.KindValidation
	default:
		return shared.KindNetwork
	}
}

// errorBody is the error envelope the backend uses. Only `error` is guaranteed.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Details json.RawMessage `json:"details"`
}

// normalize converts a failed response into a DomainError
func normalize(status int, body []byte, fallback string) *shared.DomainError {
	kind := KindForStatus(status)
	message := fallback
	var fields map[string]string

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if m := textOf(eb.Error); m != "" {
			message = m
		} else if m := strings.TrimSpace(eb.Message); m != "" {
			message = m
		}
		fields = fieldsOf(eb.Errors)
		if fields == nil {
			fields = fieldsOf(eb.Details)
		}
	}

	code := codeFor(kind, status)
	return shared.NewDomainError(kind, code, message).WithStatus(status).WithFields(fields)
}

func codeFor(kind shared.ErrorKind, status int) string {
	switch status {
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusConflict:
		return "CONFLICT"
	}
	switch kind {
	case shared.KindAuth:
		return "UNAUTHORIZED"
	case shared.KindNotFound:
		return "NOT_FOUND"
	case shared.KindValidation:
		return "INVALID_INPUT"
	default:
		return fmt.Sprintf("HTTP_%d", status)
	}
}

// textOf accepts `"error": "msg"` and `"error": {"message": "msg"}`
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}

// fieldsOf accepts a field→message object or a list of {field, message} objects
func fieldsOf(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]string
	if json.Unmarshal(raw, &m) == nil && len(m) > 0 {
		return m
	}
	var list []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &list) == nil {
		out := make(map[string]string, len(list))
		for _, item := range list {
			if item.Field != "" {
				out[item.Field] = item.Message
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
