package sparql

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy of upstream calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the endpoint did not answer within the timeout
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorProviderOutage indicates a transport failure or non-2xx status
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorBadData indicates a response body that could not be parsed
	ErrorBadData ErrorCategory = "bad_data"
)

// UpstreamError describes a failed resolution. Status is the HTTP status
// received, or zero when no response arrived.
type UpstreamError struct {
	Category   ErrorCategory
	Status     int
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("sparql [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("sparql [%s]: %s", e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *UpstreamError) Unwrap() error {
	return e.Underlying
}

// GetCategory extracts the error category, or "" for other errors.
func GetCategory(err error) ErrorCategory {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ""
}
