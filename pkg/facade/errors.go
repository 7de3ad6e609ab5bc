package facade

import (
	"errors"
	"fmt"
)

// Error represents a domain error from a facade operation.
//
// These are business logic errors (wrong password, missing group, etc.)
// as opposed to infrastructure errors (disk failure, unreachable API).
//
// The protocol dispatcher translates Error values into the reply text
// sent to the client; Message therefore carries client-presentable
// wording.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ErrorCode represents the category of a facade error.
type ErrorCode int

const (
	// ErrValidation indicates blank or malformed command arguments
	ErrValidation ErrorCode = iota

	// ErrPasswordPolicy indicates the password fails the registration policy
	ErrPasswordPolicy

	// ErrUserExists indicates the username is already registered
	ErrUserExists

	// ErrNoSuchUser indicates login for an unregistered username
	ErrNoSuchUser

	// ErrInvalidCredentials indicates a wrong password at login
	ErrInvalidCredentials

	// ErrAlreadyLoggedIn indicates the connection already has a session
	ErrAlreadyLoggedIn

	// ErrNotLoggedIn indicates the operation requires authentication
	ErrNotLoggedIn

	// ErrGroupExists indicates the group name is already taken
	ErrGroupExists

	// ErrNoSuchGroup indicates the named group does not exist
	ErrNoSuchGroup

	// ErrNoSuchBookmark indicates no bookmark matched the given title
	ErrNoSuchBookmark

	// ErrShortenUnavailable indicates shortening was requested with no
	// API key configured
	ErrShortenUnavailable

	// ErrInternal indicates a persistence or collaborator failure
	ErrInternal
)

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err. The second return is false
// when err is not a facade Error.
func CodeOf(err error) (ErrorCode, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return 0, false
}

// IsNotLoggedIn reports whether err is the authentication-required
// error. The dispatcher maps it to a fixed warning string for the
// read-type verbs.
func IsNotLoggedIn(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrNotLoggedIn
}
