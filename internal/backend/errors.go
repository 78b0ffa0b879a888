package backend

import "fmt"

// APIError is a non-2xx response from the backend. Detail carries the
// backend's own detail string verbatim so callers can surface it unchanged.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}
