// Package services defines the business logic for message scheduling,
// immediate delivery, and Slack authentication. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Validation errors (rejected synchronously, nothing persisted).
var (
	// ErrEmptyMessage is returned when a send or schedule request carries an
	// empty (or whitespace-only) message body.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrEmptyChannel is returned when a send or schedule request names no
	// destination channel.
	ErrEmptyChannel = errors.New("channel is required")

	// ErrScheduleInPast is returned when a schedule request's delivery time
	// is not strictly in the future.
	ErrScheduleInPast = errors.New("scheduled time must be in the future")
)

// Lookup errors.
var (
	// ErrUserNotFound indicates the caller has no stored Slack credential,
	// i.e. they never completed the OAuth flow (or were removed).
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound indicates the requested scheduled message does not
	// exist or is not accessible to the current user.
	ErrMessageNotFound = errors.New("scheduled message not found")
)

// Auth errors.
var (
	// ErrInvalidToken is returned when a JWT fails verification or carries
	// unexpected claims.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingCode is returned when an OAuth exchange is attempted without
	// an authorization code.
	ErrMissingCode = errors.New("authorization code missing")
)
