package transport_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adamwoolhether/apiman/transport"
	"github.com/adamwoolhether/apiman/transport/throttle"
	"github.com/google/go-cmp/cmp"
)

func TestBuild_Validation(t *testing.T) {
	testCases := []struct {
		name string
		cfg  transport.Config
		opts []transport.Option
	}{
		{name: "negative timeout", cfg: transport.Config{Timeout: -time.Second}},
		{name: "nil transport", opts: []transport.Option{transport.WithTransport(nil)}},
		{name: "nil client", opts: []transport.Option{transport.WithClient(nil)}},
		{name: "nil logger", opts: []transport.Option{transport.WithLogger(nil)}},
		{name: "zero throttle", opts: []transport.Option{transport.WithThrottle(0, 1)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := transport.Build(tc.cfg, tc.opts...); err == nil {
				t.Fatal("exp build error, got nil")
			}
		})
	}

	_, err := transport.Build(transport.Config{}, transport.WithThrottle(-1, 2))
	if !errors.Is(err, throttle.ErrMustNotBeZero) {
		t.Errorf("exp %v, got: %v", throttle.ErrMustNotBeZero, err)
	}
}

func TestHandle_AcceptsEveryStatusByDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer ts.Close()

	h, err := transport.Build(transport.Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	resp, err := h.Do(t.Context(), &transport.Request{Method: http.MethodGet, URL: "/anything"})
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("exp status %d, got %d", http.StatusInternalServerError, resp.StatusCode)
	}
	if string(resp.Body) != "boom" {
		t.Errorf("exp body %q, got %q", "boom", resp.Body)
	}
}

func TestHandle_RejectedStatusHooks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"reason":"nope"}`))
	}))
	defer ts.Close()

	var first, second int
	var seen *transport.StatusError
	h, err := transport.Build(transport.Config{
		BaseURL:        ts.URL,
		StatusAccepted: func(code int) bool { return code == http.StatusOK },
		OnRejectedStatus: []transport.RejectedHook{
			func(se *transport.StatusError) { first++; seen = se },
			nil,
			func(*transport.StatusError) { second++ },
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err = h.Do(t.Context(), &transport.Request{Method: http.MethodGet, URL: "users"})

	var se *transport.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("exp *StatusError, got: %v", err)
	}
	if se != seen {
		t.Error("exp hooks to receive the returned error unchanged")
	}
	if !errors.Is(err, transport.ErrStatusRejected) || !errors.Is(err, transport.ErrAuthFailure) {
		t.Errorf("exp rejected and auth failure sentinels, got: %v", err)
	}
	if first != 1 || second != 1 {
		t.Errorf("exp each hook once, got first=%d second=%d", first, second)
	}
	if string(se.Body) != `{"reason":"nope"}` {
		t.Errorf("unexpected body: %s", se.Body)
	}
}

func TestHandle_Headers(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer ts.Close()

	h, err := transport.Build(transport.Config{
		BaseURL: ts.URL,
		Headers: map[string]string{"X-Default": "base", "X-Override": "base"},
	}, transport.WithUserAgent("apiman-test/1.0"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err = h.Do(t.Context(), &transport.Request{
		Method:      http.MethodPost,
		URL:         "/items",
		Header:      http.Header{"X-Override": {"call"}},
		Body:        []byte(`{}`),
		ContentType: "application/json",
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	exp := map[string]string{
		"X-Default":    "base",
		"X-Override":   "call",
		"User-Agent":   "apiman-test/1.0",
		"Content-Type": "application/json",
	}
	for k, v := range exp {
		if diff := cmp.Diff(v, got.Get(k)); diff != "" {
			t.Errorf("header %s mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestHandle_ResolvesAgainstBaseURL(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
	}))
	defer ts.Close()

	h, err := transport.Build(transport.Config{BaseURL: ts.URL + "/api/"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, u := range []string{"/users", "users/1", ts.URL + "/absolute"} {
		if _, err := h.Do(t.Context(), &transport.Request{Method: http.MethodGet, URL: u}); err != nil {
			t.Fatalf("do %s: %v", u, err)
		}
	}

	if diff := cmp.Diff([]string{"/api/users", "/api/users/1", "/absolute"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	h, err := transport.Build(transport.Config{BaseURL: ts.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := h.Do(t.Context(), &transport.Request{Method: http.MethodGet, URL: "/slow"}); err == nil {
		t.Fatal("exp timeout error, got nil")
	}
}

func TestHandle_ID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	a, err := transport.Build(transport.Config{
		BaseURL:        ts.URL,
		StatusAccepted: func(int) bool { return false },
	}, transport.WithLogger(logger))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := transport.Build(transport.Config{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("exp distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
	if a.HTTPClient() == b.HTTPClient() {
		t.Error("exp each handle to own its http.Client")
	}

	_, _ = a.Do(t.Context(), &transport.Request{Method: http.MethodGet, URL: "/"})
	if !strings.Contains(buf.String(), "transport_id="+a.ID()) {
		t.Errorf("exp log records tagged with transport id, got:\n%s", buf.String())
	}
}

func TestBuild_WithClientLeavesCallerClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: 7 * time.Second}

	a, err := transport.Build(transport.Config{Timeout: time.Second}, transport.WithClient(shared), transport.WithNoFollowRedirects())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := transport.Build(transport.Config{Timeout: 2 * time.Second}, transport.WithClient(shared), transport.WithUserAgent("b"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if a.HTTPClient() == shared || b.HTTPClient() == shared || a.HTTPClient() == b.HTTPClient() {
		t.Fatal("exp each handle to hold its own copy of the client")
	}
	if a.HTTPClient().Timeout != time.Second || b.HTTPClient().Timeout != 2*time.Second {
		t.Errorf("exp per-handle timeouts, got %s and %s", a.HTTPClient().Timeout, b.HTTPClient().Timeout)
	}
	if a.HTTPClient().CheckRedirect == nil || b.HTTPClient().CheckRedirect != nil {
		t.Error("exp redirect policy to stay with the handle that asked for it")
	}
	if shared.Timeout != 7*time.Second || shared.Transport != nil || shared.CheckRedirect != nil {
		t.Errorf("caller client was modified: %+v", shared)
	}
}
