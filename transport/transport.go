package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/adamwoolhether/apiman/internal/debugid"
	"github.com/adamwoolhether/apiman/transport/throttle"
)

// Config holds the settings a [Handle] is built from.
// The validate tags describe the complete reference shape and are only
// consulted by an explicit pre-flight check; [Build] tolerates absent fields.
type Config struct {
	BaseURL          string            `json:"baseUrl"`
	Headers          map[string]string `json:"headers" validate:"required"`
	Timeout          time.Duration     `json:"timeout" validate:"gte=0"`
	StatusAccepted   StatusFunc        `json:"statusAccepted" validate:"required"`
	OnRejectedStatus []RejectedHook    `json:"onRejectedStatus" validate:"required"`
}

// Handle is the shared, configured HTTP client of a manager.
// It holds no per-call state and is safe for concurrent use.
type Handle struct {
	c          *http.Client
	baseURL    string
	headers    http.Header
	accept     StatusFunc
	onRejected []RejectedHook
	id         string
	logger     *slog.Logger
}

var absoluteURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*://`)

// Build instantiates a [Handle] from cfg. A nil StatusAccepted accepts every status.
func Build(cfg Config, optFns ...Option) (*Handle, error) {
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout[%s] must not be negative", cfg.Timeout)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying transport option: %w", err)
		}
	}

	h := &Handle{
		c:          &http.Client{},
		baseURL:    cfg.BaseURL,
		headers:    make(http.Header, len(cfg.Headers)),
		accept:     cfg.StatusAccepted,
		onRejected: compact(cfg.OnRejectedStatus),
		id:         debugid.New(),
		logger:     slog.Default(),
	}

	for k, v := range cfg.Headers {
		h.headers.Set(k, v)
	}

	if opts.client != nil {
		cpy := *opts.client
		h.c = &cpy
	}

	if opts.logger != nil {
		h.logger = opts.logger
	}
	h.logger = h.logger.With("transport_id", h.id)

	h.c.Timeout = cfg.Timeout

	if opts.noFollowRedirects {
		h.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	case opts.insecure:
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		transport = base
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return h.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	h.c.Transport = transport

	return h, nil
}

// ID returns the handle's debug token. It is only meant for log correlation.
func (h *Handle) ID() string {
	return h.id
}

// HTTPClient returns the underlying shared [http.Client].
func (h *Handle) HTTPClient() *http.Client {
	return h.c
}

// Do issues req and reads the complete response. A status not accepted by the
// configured [StatusFunc] runs every [RejectedHook] and is returned as a [*StatusError].
func (h *Handle) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	r, err := http.NewRequestWithContext(ctx, req.Method, h.resolve(req.URL), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for k, v := range h.headers {
		r.Header[k] = slices.Clone(v)
	}
	for k, v := range req.Header {
		r.Header[k] = slices.Clone(v)
	}
	if req.ContentType != "" {
		r.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := h.c.Do(r)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			h.logger.Error("failed to close response body", "error", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if h.accept != nil && !h.accept(resp.StatusCode) {
		se := newStatusError(resp, b)
		h.logger.Debug("response status rejected", "method", req.Method, "url", req.URL, "statusCode", resp.StatusCode)

		for _, hook := range h.onRejected {
			hook(se)
		}

		return nil, se
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}

// resolve joins a relative path onto the base URL. Absolute URLs pass through.
func (h *Handle) resolve(path string) string {
	if h.baseURL == "" || absoluteURL.MatchString(path) {
		return path
	}
	if path == "" {
		return h.baseURL
	}

	return strings.TrimRight(h.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func compact(hooks []RejectedHook) []RejectedHook {
	out := make([]RejectedHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			out = append(out, hook)
		}
	}

	return out
}
