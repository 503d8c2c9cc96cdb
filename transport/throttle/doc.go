// Package throttle provides an opt-in [http.RoundTripper] that rate-limits
// the calls a transport handle issues, using the token bucket from
// [golang.org/x/time/rate].
//
// It is enabled per handle with transport.WithThrottle. When the bucket is
// empty a call waits for a token or for its context to end; nothing is
// retried or dropped.
package throttle
