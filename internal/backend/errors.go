package backend

import (
	"errors"
	"fmt"
)

// Collaborator failures surface directly in panel toasts, so the
// sentinel texts are the user-facing canned messages.
var (
	// ErrNetwork is returned when a request could not be sent or completed.
	ErrNetwork = errors.New("Network error. Please check your connection.")

	// ErrBadRequest is returned for HTTP 400 responses.
	ErrBadRequest = errors.New("Invalid request. Please check your input.")

	// ErrServer is returned for 5xx and other unexpected statuses.
	ErrServer = errors.New("Server error. Please try again later.")

	// ErrNotFound is the base for 404 responses; callers see
	// "<Resource> not found".
	ErrNotFound = errors.New("not found")
)

// statusError maps an HTTP response status to the fixed error set.
// The resource name ("Room", "Device", ...) personalises 404s.
func statusError(status int, resource string) error {
	switch {
	case status == 400:
		return ErrBadRequest
	case status == 404:
		return fmt.Errorf("%s %w", resource, ErrNotFound)
	default:
		return ErrServer
	}
}
