package llm

import (
	"errors"
	"fmt"
)

// FailureKind classifies upstream completion-service failures.
type FailureKind string

const (
	// FailureRateLimited means the provider rejected the call for quota reasons.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureUnavailable means the provider was unreachable or errored server-side.
	FailureUnavailable FailureKind = "unavailable"
)

// UpstreamError is a classified completion-service failure. The agent loop
// retries these while iterations remain and aborts gracefully otherwise.
type UpstreamError struct {
	Kind    FailureKind
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("completion service %s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("completion service %s: %s", e.Kind, e.Message)
}

// ClassifyHTTPStatus wraps an upstream HTTP failure as an UpstreamError.
func ClassifyHTTPStatus(status int, message string) *UpstreamError {
	kind := FailureUnavailable
	if status == 429 {
		kind = FailureRateLimited
	}
	return &UpstreamError{Kind: kind, Status: status, Message: message}
}

// AsUpstream extracts an UpstreamError from an error chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
