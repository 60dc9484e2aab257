package api

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an address is absent from an API listing.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx API response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
