package workbooks

import (
	"errors"
	"fmt"
)

// ErrorKind classifies API failures so callers can branch on the category
// instead of string-matching messages.
type ErrorKind string

const (
	// KindNotFound: the resource or endpoint does not exist (HTTP 404).
	KindNotFound ErrorKind = "not_found"
	// KindValidationFailed: the remote rejected the payload (HTTP 400/422).
	KindValidationFailed ErrorKind = "validation_failed"
	// KindRemoteUnavailable: network failure, timeout, or 5xx after retries.
	KindRemoteUnavailable ErrorKind = "remote_unavailable"
	// KindMalformedResponse: a 2xx response whose body could not be decoded.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// APIError is the error type returned by all Client operations.
type APIError struct {
	Kind   ErrorKind
	Status int // HTTP status, 0 for transport-level failures
	Detail string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("workbooks: %s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("workbooks: %s: %s", e.Kind, e.Detail)
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 400 || status == 422:
		return KindValidationFailed
	default:
		return KindRemoteUnavailable
	}
}
