package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Provider errors. Unavailable and timeout are retryable; not found is not.
	ErrProviderUnavailable = fmt.Errorf("content provider unavailable")
	ErrTimeout             = fmt.Errorf("operation timed out")
	ErrNotFound            = fmt.Errorf("not found")

	// Cache errors, absorbed by the cache layer
	ErrCacheUnavailable = fmt.Errorf("cache backend unavailable")

	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsRetryable reports whether err is a transient provider failure a caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrProviderUnavailable)
}
