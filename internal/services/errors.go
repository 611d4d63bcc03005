package services

import "errors"

// Standard service errors. Duplicate candidates skipped during a Gmail sync
// are NOT an error; they surface as a count on the sync result.
var (
	// Auth errors
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUsernameTaken   = errors.New("username already taken")

	// Data errors
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input provided")

	// Remote collaborator errors
	ErrRemoteRejected    = errors.New("remote rejected the operation")
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// Gmail linkage errors
	ErrGmailNotLinked = errors.New("gmail account not linked")
)

// IsRetryableError determines if an error should be retried
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// IsPermanentError determines if an error is permanent and should not be retried
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrRemoteRejected) ||
		errors.Is(err, ErrGmailNotLinked)
}
