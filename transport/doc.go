// Package transport builds the shared HTTP client a manager issues every
// request through.
//
// # Building a Handle
//
// Use [Build] with a [Config] and functional options:
//
//	h, err := transport.Build(transport.Config{
//		BaseURL:        "https://api.example.com",
//		Headers:        map[string]string{"Accept": "application/json"},
//		Timeout:        10 * time.Second,
//		StatusAccepted: func(code int) bool { return code < 500 },
//	}, transport.WithUserAgent("myapp/1.0"))
//
// # Status acceptance
//
// [Config].StatusAccepted is the only criterion deciding whether a response
// is returned or turned into a [*StatusError]. Leaving it nil accepts every
// status code, including 4xx and 5xx. Rejected responses run each
// [RejectedHook] once before the error is returned.
package transport
