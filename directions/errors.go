package directions

import "fmt"

// InvalidInputError is returned before any outbound call when the request
// itself is unusable.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid route request: %s: %s", e.Field, e.Reason)
}

// ProviderError reports a failed upstream call. Status is the provider's
// status string (e.g. "OVER_QUERY_LIMIT") or one of the local statuses
// below. It is the only error kind worth retrying.
type ProviderError struct {
	Status  string
	Message string
	Err     error
}

const (
	StatusTimeout     = "TIMEOUT"
	StatusUnavailable = "UNAVAILABLE"
	StatusRateLimited = "RATE_LIMITED"
	StatusBadResponse = "BAD_RESPONSE"
)

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("directions provider error %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("directions provider error %s", e.Status)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
