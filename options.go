package apiman

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/apiman/compiler"
	"github.com/adamwoolhether/apiman/transport"
)

// Option is a functional option for configuring a [Manager] via [New].
type Option func(*options) error
type options struct {
	logger        *slog.Logger
	tracer        trace.Tracer
	transportOpts []transport.Option
	compileOpts   []compiler.Option
	useJSONNum    bool
}

// WithLogger injects a custom [slog.Logger], shared by the transport and executor.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer injects the tracer starting a span per request.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithTransportOptions forwards options to [transport.Build].
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) error {
		o.transportOpts = append(o.transportOpts, opts...)
		return nil
	}
}

// WithResultExtractor maps the payload of every resolved call except
// fetch-binary ones, which resolve with their data URI.
func WithResultExtractor(fn func(any) any) Option {
	return func(o *options) error {
		o.compileOpts = append(o.compileOpts, compiler.WithResultExtractor(fn))
		return nil
	}
}

// WithErrorExtractor maps the error of every failed call.
func WithErrorExtractor(fn func(error) error) Option {
	return func(o *options) error {
		o.compileOpts = append(o.compileOpts, compiler.WithErrorExtractor(fn))
		return nil
	}
}

// WithJSONNumber decodes JSON numbers in payloads as json.Number.
func WithJSONNumber() Option {
	return func(o *options) error {
		o.useJSONNum = true
		return nil
	}
}
