package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/apiman/transport"
)

// StatusOK is the only payload-level status that resolves a call.
// It is checked after, and independently of, the transport's StatusFunc.
const StatusOK = http.StatusOK

// Verb identifies the semantic operation in hook calls and log records.
type Verb string

// Set of verbs passed to hooks.
const (
	VerbFetch       Verb = "GET"
	VerbReplace     Verb = "PUT"
	VerbCreate      Verb = "POST"
	VerbRemove      Verb = "DELETE"
	VerbFetchBinary Verb = "BINARY"
)

// Method returns the HTTP method the verb is issued with.
func (v Verb) Method() string {
	if v == VerbFetchBinary {
		return http.MethodGet
	}
	return string(v)
}

// AuthHeaderFunc returns the headers merged into every request.
// Its keys win over the caller's headers.
type AuthHeaderFunc func(useAuth bool) map[string]string

// BeforeHook runs before the transport call. body is an empty map
// for calls without a body. Its return is ignored and panics are not recovered.
type BeforeHook func(ctx context.Context, verb Verb, url string, body any, header map[string]string)

// AfterHook runs after the transport call. Exactly one of resp and err is non-nil.
type AfterHook func(ctx context.Context, verb Verb, url string, header map[string]string, body any, resp *transport.Response, err error)

// Doer issues a single request. [*transport.Handle] satisfies it.
type Doer interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// ErrUnexpectedStatus marks a transport call that succeeded with a
// status other than [StatusOK].
var ErrUnexpectedStatus = errors.New("unexpected payload status")

// ErrMissingContentType marks a binary response that carries no Content-Type
// to build its data URI from.
var ErrMissingContentType = errors.New("missing content type")

// RejectedError is the failure of every executor operation. Payload is the
// best available body: the decoded response, the decoded error body, or nil.
type RejectedError struct {
	Verb       Verb
	URL        string
	StatusCode int
	Payload    any
	Err        error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s %s rejected: %v", e.Verb, e.URL, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}
