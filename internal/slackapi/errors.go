// Package slackapi wraps the Slack Web API behind a small gateway used by
// the request-facing service and the dispatcher. This file defines the error
// type that all upstream failures are normalized into.
package slackapi

import "fmt"

// APIError represents a failure reported by (or while reaching) the Slack
// API. Op names the gateway operation, Reason carries the upstream error
// payload when one was returned (e.g. "channel_not_found", "token_expired"),
// and Err is the underlying transport or decoding error, if any.
type APIError struct {
	Op     string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("slack: %s: %s", e.Op, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("slack: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("slack: %s failed", e.Op)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *APIError) Unwrap() error { return e.Err }

// wrapErr converts an arbitrary error from the slack-go client into an
// *APIError. The slack-go client surfaces upstream "ok":false payloads as
// plain errors whose text is the error code, so that text becomes Reason.
func wrapErr(op string, err error) *APIError {
	return &APIError{Op: op, Reason: err.Error(), Err: err}
}
