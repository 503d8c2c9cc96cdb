package executor

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring an [Executor] via [New].
type Option func(*options) error
type options struct {
	authHeader AuthHeaderFunc
	before     []BeforeHook
	after      []AfterHook
	logger     *slog.Logger
	tracer     trace.Tracer
	useJSONNum bool
	id         string
}

// WithAuthHeader sets the function consulted for auth headers on every call.
func WithAuthHeader(fn AuthHeaderFunc) Option {
	return func(o *options) error {
		o.authHeader = fn
		return nil
	}
}

// WithBeforeRequest appends hooks run before every transport call.
// Nil entries are ignored.
func WithBeforeRequest(hooks ...BeforeHook) Option {
	return func(o *options) error {
		for _, h := range hooks {
			if h != nil {
				o.before = append(o.before, h)
			}
		}
		return nil
	}
}

// WithAfterRequest appends hooks run after every transport call.
// Nil entries are ignored.
func WithAfterRequest(hooks ...AfterHook) Option {
	return func(o *options) error {
		for _, h := range hooks {
			if h != nil {
				o.after = append(o.after, h)
			}
		}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Executor].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer injects the tracer used to start a client span per call.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithJSONNumber decodes JSON numbers in payloads as [encoding/json.Number].
func WithJSONNumber() Option {
	return func(o *options) error {
		o.useJSONNum = true
		return nil
	}
}

// WithID tags the executor's log records with the given correlation id.
func WithID(id string) Option {
	return func(o *options) error {
		o.id = id
		return nil
	}
}
