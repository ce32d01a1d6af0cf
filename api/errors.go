package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the SmartEdu backend
type Error struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *Error) Error() string {
	return e.Message
}

// newError builds an Error using the body's message, or a generic status
// message when the body carries none.
func newError(method, path string, status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{StatusCode: status, Message: message, Method: method, Path: path}
}

// StatusOf returns the HTTP status of a backend error, or 0 for transport errors
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a backend 404. For generated entities this
// also means the generation job has not produced output yet.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether the backend rejected the session token
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
