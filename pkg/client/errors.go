package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error classes returned (wrapped) by every client call
var (
	ErrTransport    = errors.New("backend unreachable")
	ErrValidation   = errors.New("request rejected by backend validation")
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("permission denied")
	ErrServer       = errors.New("backend error")
)

// APIError describes a failed backend call
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Method, e.Path, e.err, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Unwrap exposes the error class for errors.Is
func (e *APIError) Unwrap() error {
	return e.err
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     extractDetail(body),
	}

	switch {
	case status == http.StatusNotFound:
		e.err = ErrNotFound
	case status == http.StatusUnauthorized:
		e.err = ErrUnauthorized
	case status == http.StatusForbidden:
		e.err = ErrForbidden
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		e.err = ErrValidation
	default:
		e.err = ErrServer
	}

	return e
}

// extractDetail pulls a readable message out of common backend error bodies:
// {"detail": "..."}, {"error": "..."}, {"message": "..."} or field error maps
func extractDetail(body []byte) string {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}

	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := obj[k].(type) {
		case []interface{}:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				msgs = append(msgs, fmt.Sprint(m))
			}
			parts = append(parts, k+": "+strings.Join(msgs, ", "))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return strings.Join(parts, "; ")
}

// Message converts any error into a user-facing string
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch {
	case errors.Is(err, ErrTransport):
		return "Unable to reach the server. Please check your connection and try again."
	case errors.Is(err, ErrNotFound):
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return "The requested item no longer exists."
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action."
	case apiErr.Detail != "":
		return apiErr.Detail
	default:
		return "Something went wrong. Please try again."
	}
}
