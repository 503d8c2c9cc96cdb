package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStatusRejected is the sentinel error wrapped by [StatusError].
	ErrStatusRejected = errors.New("status rejected")
	// ErrAuthFailure is joined with [ErrStatusRejected] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// StatusFunc reports whether a response status code counts as a
// successful transport call.
type StatusFunc func(code int) bool

// RejectedHook is invoked for every response whose status
// was not accepted by the configured [StatusFunc].
type RejectedHook func(err *StatusError)

// Request is a single base-URL-relative call issued through a [Handle].
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	ContentType string
}

// Response holds a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned when the configured [StatusFunc]
// rejects the response status code.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	err := ErrStatusRejected
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = errors.Join(ErrAuthFailure, ErrStatusRejected)
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		Err:        err,
	}
}
