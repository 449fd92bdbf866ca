package errors

import "errors"

// Shared application errors. Services wrap these with %w and handlers map
// them to HTTP status codes; nothing here is fatal to the process.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for authentication failures (missing or bad token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks access (access gate denies,
	// or the attempt belongs to another user).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed input, e.g. an unknown question id
	// or an out-of-range option index.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned on uniqueness violations: a second in_progress
	// attempt for the same (user, quiz), or a second pending access request
	// for the same (user, subject).
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidState is returned when an operation is not valid for the
	// entity's current lifecycle state (e.g. deciding a non-pending request,
	// submitting an expired attempt).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrExpired is returned when an attempt's deadline has passed.
	ErrExpired = errors.New("attempt deadline has passed")

	// ErrAttemptLimitExceeded is returned when the user has exhausted the
	// quiz's maximum attempt count.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")

	// ErrNotAvailable is returned when the quiz is outside its availability window.
	ErrNotAvailable = errors.New("quiz is not available")
)
