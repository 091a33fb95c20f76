package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidArgument is wrapped by every precondition failure raised before
// a network call is attempted.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrSessionExpired is returned (inside an AuthError) when the held session
// has expired and automatic refresh is disabled.
var ErrSessionExpired = errors.New("session expired")

// ErrUnparseable is wrapped by APIError values produced when a response body
// could not be interpreted.
var ErrUnparseable = errors.New("unparseable response")

// ErrClientClosed is returned by operations on a closed client.
var ErrClientClosed = errors.New("client closed")

// InvalidArgumentf returns an error wrapping ErrInvalidArgument with the
// formatted detail.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// AuthError reports a failure in either authentication strategy, including
// the app sign-in step of the delegated flow.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Op
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError reports a transport failure, a non-success status, or a response
// that could not be parsed. StatusCode is zero for transport failures.
// Body holds the raw response for parse failures only and is never part of
// the message.
type APIError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// IsConflict reports whether err is an APIError carrying HTTP 409, the
// vault's "already checked out" signal.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsNotFound reports whether err is an APIError carrying HTTP 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
