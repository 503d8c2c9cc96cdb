package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/apiman/transport"
)

// Executor runs hooks around transport calls and normalizes their outcome.
// It holds no per-call state; concurrent calls are independent.
type Executor struct {
	doer       Doer
	authHeader AuthHeaderFunc
	before     []BeforeHook
	after      []AfterHook
	logger     *slog.Logger
	tracer     trace.Tracer
	useJSONNum bool
}

// New instantiates an [Executor] issuing its calls through doer.
func New(doer Doer, optFns ...Option) (*Executor, error) {
	if doer == nil {
		return nil, errors.New("doer must not be nil")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying executor option: %w", err)
		}
	}

	e := &Executor{
		doer:       doer,
		authHeader: opts.authHeader,
		before:     opts.before,
		after:      opts.after,
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer(""),
		useJSONNum: opts.useJSONNum,
	}

	if opts.logger != nil {
		e.logger = opts.logger
	}
	if opts.id != "" {
		e.logger = e.logger.With("manager_id", opts.id)
	}
	if opts.tracer != nil {
		e.tracer = opts.tracer
	}

	return e, nil
}

// Fetch issues a GET and resolves with the decoded payload of a 200 response.
func (e *Executor) Fetch(ctx context.Context, url string, header map[string]string, useAuth bool) (any, error) {
	return e.send(ctx, call{verb: VerbFetch, url: url, header: header, useAuth: useAuth})
}

// Replace issues a PUT carrying body.
func (e *Executor) Replace(ctx context.Context, url string, body any, header map[string]string, useAuth bool) (any, error) {
	return e.send(ctx, call{verb: VerbReplace, url: url, body: body, hasBody: true, header: header, useAuth: useAuth})
}

// CreateWithBody issues a POST carrying body.
func (e *Executor) CreateWithBody(ctx context.Context, url string, body any, header map[string]string, useAuth bool) (any, error) {
	return e.send(ctx, call{verb: VerbCreate, url: url, body: body, hasBody: true, header: header, useAuth: useAuth})
}

// CreateWithForm issues a POST carrying form as multipart/form-data.
func (e *Executor) CreateWithForm(ctx context.Context, url string, form *Form, header map[string]string, useAuth bool) (any, error) {
	if form == nil {
		form = &Form{}
	}
	return e.send(ctx, call{verb: VerbCreate, url: url, form: form, header: header, useAuth: useAuth})
}

// Remove issues a DELETE.
func (e *Executor) Remove(ctx context.Context, url string, header map[string]string, useAuth bool) (any, error) {
	return e.send(ctx, call{verb: VerbRemove, url: url, header: header, useAuth: useAuth})
}

// FetchBinary issues a GET for raw bytes and resolves with a data URI built
// from the lower-cased Content-Type and the base64 encoded body. A response
// without a Content-Type is rejected with [ErrMissingContentType]. Transport
// failures are returned as-is rather than as a [*RejectedError].
func (e *Executor) FetchBinary(ctx context.Context, url string, header map[string]string, useAuth bool) (string, error) {
	resp, err := e.exchange(ctx, call{verb: VerbFetchBinary, url: url, header: header, useAuth: useAuth})
	if err != nil {
		return "", err
	}

	if resp.StatusCode != StatusOK {
		return "", &RejectedError{
			Verb:       VerbFetchBinary,
			URL:        url,
			StatusCode: resp.StatusCode,
			Payload:    e.decode(resp.Body),
			Err:        ErrUnexpectedStatus,
		}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType == "" {
		return "", &RejectedError{
			Verb:       VerbFetchBinary,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        ErrMissingContentType,
		}
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(resp.Body), nil
}

// /////////////////////////////////////////////////////////////////

type call struct {
	verb    Verb
	url     string
	body    any
	hasBody bool
	form    *Form
	header  map[string]string
	useAuth bool
}

// hookBody is what hooks observe as the request body.
func (c call) hookBody() any {
	switch {
	case c.form != nil:
		return c.form
	case c.hasBody && c.body != nil:
		return c.body
	default:
		return map[string]any{}
	}
}

// send runs the exchange and applies the payload-level 200 rule.
func (e *Executor) send(ctx context.Context, c call) (any, error) {
	resp, err := e.exchange(ctx, c)
	if err != nil {
		rejected := &RejectedError{Verb: c.verb, URL: c.url, Err: err}

		var se *transport.StatusError
		if errors.As(err, &se) {
			rejected.StatusCode = se.StatusCode
			rejected.Payload = e.decode(se.Body)
		}

		return nil, rejected
	}

	payload := e.decode(resp.Body)
	if resp.StatusCode != StatusOK {
		return nil, &RejectedError{
			Verb:       c.verb,
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Payload:    payload,
			Err:        ErrUnexpectedStatus,
		}
	}

	return payload, nil
}

// exchange merges headers, runs the hooks around the transport call and
// returns its raw outcome.
func (e *Executor) exchange(ctx context.Context, c call) (*transport.Response, error) {
	header := e.headers(c.header, c.useAuth)

	req, err := c.request(header)
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "apiman."+strings.ToLower(string(c.verb)), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", c.url),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	body := c.hookBody()
	for _, hook := range e.before {
		hook(ctx, c.verb, c.url, body, header)
	}

	start := time.Now()
	resp, err := e.doer.Do(ctx, req)

	for _, hook := range e.after {
		hook(ctx, c.verb, c.url, header, body, resp, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		e.logger.Debug("request failed", "verb", c.verb, "url", c.url, "since", time.Since(start).String(), "error", err)

		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode != StatusOK {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	e.logger.Debug("request completed", "verb", c.verb, "url", c.url, "statusCode", resp.StatusCode, "since", time.Since(start).String())

	return resp, nil
}

// headers returns a copy of header merged with the auth header.
func (e *Executor) headers(header map[string]string, useAuth bool) map[string]string {
	merged := maps.Clone(header)
	if merged == nil {
		merged = make(map[string]string)
	}

	if e.authHeader != nil {
		maps.Copy(merged, e.authHeader(useAuth))
	}

	return merged
}

// request encodes the call into a transport request.
func (c call) request(header map[string]string) (*transport.Request, error) {
	req := &transport.Request{
		Method: c.verb.Method(),
		URL:    c.url,
		Header: make(http.Header, len(header)),
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	switch {
	case c.form != nil:
		b, contentType, err := c.form.encode()
		if err != nil {
			return nil, fmt.Errorf("encoding form: %w", err)
		}
		req.Body = b
		req.ContentType = contentType

	case c.hasBody && c.body != nil:
		var contentType string
		switch v := c.body.(type) {
		case string:
			req.Body = []byte(v)
			contentType = "text/plain; charset=utf-8"
		case []byte:
			req.Body = v
			contentType = "application/octet-stream"
		case json.RawMessage:
			req.Body = v
			contentType = "application/json"
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding request payload: %w", err)
			}
			req.Body = b
			contentType = "application/json"
		}

		if req.Header.Get("Content-Type") == "" {
			req.ContentType = contentType
		}
	}

	return req, nil
}

// decode turns a body into a payload: nil when empty, the decoded
// value when it is JSON, the text otherwise.
func (e *Executor) decode(b []byte) any {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if !json.Valid(b) {
		return string(b)
	}

	d := json.NewDecoder(bytes.NewReader(b))
	if e.useJSONNum {
		d.UseNumber()
	}

	var v any
	if err := d.Decode(&v); err != nil {
		return string(b)
	}

	return v
}
