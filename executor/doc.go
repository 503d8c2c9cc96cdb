// Package executor exposes one operation per request semantic (fetch,
// replace, create with a body, create with a form, remove, fetch binary)
// and normalizes their outcome.
//
// Every call merges the auth header into the caller's headers, runs the
// before hooks, issues the transport call and runs the after hooks. Two
// independent success criteria apply: the transport's status predicate
// decides whether the call failed at the transport level, and only a
// status of exactly [StatusOK] resolves. Everything else is a
// [*RejectedError] carrying the best available payload.
package executor
