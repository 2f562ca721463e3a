package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable      = errors.New("server unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidResponse  = errors.New("invalid response")
)

// ResponseError is a non-2xx answer from the identity service. Message is the
// response body text, trimmed; it may be empty.
type ResponseError struct {
	StatusCode int
	Message    string
}

func newResponseError(status int, message string) *ResponseError {
	return &ResponseError{StatusCode: status, Message: message}
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.Unwrap(), e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Unwrap(), e.StatusCode, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return kindForStatus(e.StatusCode)
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return ErrUnexpectedStatus
	}
}

// ServerMessage returns the response body text carried by err, if any.
func ServerMessage(err error) string {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}
