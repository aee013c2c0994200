package backend

import "fmt"

const defaultErrorMessage = "API request failed"

// Error is a non-2xx answer from the CalX backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("calx backend: %d %s", e.Status, e.Message)
}

// Temporary reports whether the backend itself failed rather than rejecting the request.
func (e *Error) Temporary() bool {
	return e.Status >= 500
}
