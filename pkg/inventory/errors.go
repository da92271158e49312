package inventory

import (
	"errors"
	"fmt"
	"net"
)

// AuthError means the key pair was rejected or the login endpoint was
// unreachable. It is fatal: the run aborts before any resolution starts.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("inventory authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError is a non-2xx response from the inventory endpoint.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("inventory request failed: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is a rate-limit or transient
// upstream condition worth retrying.
func (e *RequestError) Retryable() bool {
	switch e.StatusCode {
	case 429, 502, 503, 504:
		return true
	}
	return false
}

// BatchFailure scopes an exhausted-retries error to one key subset. The
// snapshots behind those keys are reported as resolution failures; the rest
// of the run continues.
type BatchFailure struct {
	AssetType string
	Keys      []string
	Err       error
}

func (e *BatchFailure) Error() string {
	return fmt.Sprintf("batch fetch of %d %s keys failed: %v", len(e.Keys), e.AssetType, e.Err)
}

func (e *BatchFailure) Unwrap() error { return e.Err }

// retryableError reports whether err is worth another attempt: a retryable
// HTTP status or a connection-level transient failure. Any other response
// error is fatal for the call.
func retryableError(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
