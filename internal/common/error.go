// Package common defines shared constants and the error taxonomy used by the
// session and registration layers of the Work Group client. Callers should use
// errors.Is to match the sentinel kinds.
package common

import "errors"

var (
	// ErrPersistence reports that the durable session store could not be read
	// or written.
	ErrPersistence = errors.New("session storage failure")

	// ErrAuthenticationFailed reports rejected credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNetworkFailure reports a transient transport problem.
	ErrNetworkFailure = errors.New("network failure")

	// ErrConflict reports that the email is already registered.
	ErrConflict = errors.New("email already registered")

	// ErrInvalidState reports an operation invoked in a session state that
	// does not allow it, e.g. deleting an account while anonymous.
	ErrInvalidState = errors.New("invalid session state")

	// ErrRequestRejected reports a server refusal that is neither an
	// authentication nor a conflict failure.
	ErrRequestRejected = errors.New("request rejected")
)

// Error is a user-facing failure. Message is safe to show to the user; Kind is
// one of the sentinels above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an Error of the given kind. An empty message falls back to
// the kind's text.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Generic user-facing messages.
const (
	MsgInvalidCredentials = "invalid email or password"
	MsgNetworkRetry       = "could not reach the server, please try again"
	MsgEmailTaken         = "this email is already registered, try logging in instead"
	MsgRequestFailed      = "the request could not be completed"
)
