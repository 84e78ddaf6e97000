package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors
var (
	// ErrInvalidInput indicates the repository URL or credentials are malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthFailed indicates the host rejected the credentials
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the API quota is exhausted
	ErrRateLimited = errors.New("rate limited")

	// ErrNetwork indicates a transport-level failure
	ErrNetwork = errors.New("network error")

	// ErrServer indicates the host answered with an unexpected status
	ErrServer = errors.New("server error")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrCancelled indicates the run was cancelled by the caller
	ErrCancelled = errors.New("cancelled")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrWriteFailed indicates writing output failed
	ErrWriteFailed = errors.New("write failed")
)

// ErrorKind is the taxonomy label of an error.
type ErrorKind string

// Error kinds
const (
	KindInvalidInput ErrorKind = "invalid-input"
	KindAuthFailed   ErrorKind = "auth-failed"
	KindNotFound     ErrorKind = "not-found"
	KindRateLimited  ErrorKind = "rate-limited"
	KindNetwork      ErrorKind = "network-error"
	KindServer       ErrorKind = "server-error"
	KindTimeout      ErrorKind = "timed-out"
	KindCancelled    ErrorKind = "cancelled"
	KindUnknown      ErrorKind = "unknown"
)

// KindOf classifies err. Cancellation wins over everything else so that an
// aborted run is never reported as a failure.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrAuthFailed):
		return KindAuthFailed
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrServer):
		return KindServer
	}
	return KindUnknown
}

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RateLimitError is returned when the quota is exhausted and the window is
// too long to wait out.
type RateLimitError struct {
	URL           string
	Limit         int
	ResetAt       time.Time
	Authenticated bool
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("rate limit exceeded for %s; quota resets at %s",
		e.URL, e.ResetAt.UTC().Format("15:04:05 MST"))
	if !e.Authenticated {
		msg += "; authenticate with a token to raise the quota"
	}
	return msg
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError(url string, limit int, resetAt time.Time, authenticated bool) *RateLimitError {
	return &RateLimitError{
		URL:           url,
		Limit:         limit,
		ResetAt:       resetAt,
		Authenticated: authenticated,
	}
}

// RunError is the error returned by a failed or aborted run. It carries the
// statistics collected up to the failure.
type RunError struct {
	Repository string
	Stats      Stats
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run for %s failed after %d files: %v", e.Repository, e.Stats.TotalFiles, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy label of the underlying cause.
func (e *RunError) Kind() ErrorKind {
	return KindOf(e.Err)
}

// Guidance returns a short user-facing hint for the failure, if any.
func (e *RunError) Guidance() string {
	switch e.Kind() {
	case KindAuthFailed:
		return "check credentials: the token or username/password was rejected"
	case KindRateLimited:
		var rl *RateLimitError
		if errors.As(e.Err, &rl) {
			return fmt.Sprintf("wait until %s or authenticate to raise the quota",
				rl.ResetAt.Local().Format("15:04:05"))
		}
		return "wait for the quota to reset or authenticate to raise it"
	case KindNotFound:
		return "check the repository URL; private repositories need credentials"
	case KindInvalidInput:
		return "expected https://<host>/<owner>/<repo> or git@<host>:<owner>/<repo>"
	}
	return ""
}

// NewRunError creates a new RunError
func NewRunError(repository string, stats Stats, err error) *RunError {
	return &RunError{
		Repository: repository,
		Stats:      stats,
		Err:        err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsRetryable reports whether the transient retry loop should try again.
// Only network-class failures qualify; timeouts count as network errors.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrCancelled) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// IsFatal reports whether err must terminate a walk instead of being absorbed
// as a per-path skip.
func IsFatal(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrAuthFailed)
}
