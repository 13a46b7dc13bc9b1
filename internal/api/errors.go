package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reachforge/reachforge-console/internal/pkg/validate"
)

// APIError is a non-2xx backend response: HTTP status, status text, and
// the parsed error body when the backend sent one. List views render it as
// a hard error state; detail panels fall back to an empty rendering.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string          // backend "error" or "message" field, if present
	Body       json.RawMessage // raw body for diagnostics
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// errorBody is the backend's error envelope. Both shapes appear in the
// wild, so both fields are tried.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrInvalidID marks a resource ID rejected before the request was built.
var ErrInvalidID = errors.New("invalid resource id")

// ErrInvalidInput marks a request payload rejected client-side.
var ErrInvalidInput = errors.New("invalid request payload")

func checkID(id string) error {
	if !validate.ID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
