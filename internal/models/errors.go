package models

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the command layer.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream providers unavailable")
	ErrNotFound            = errors.New("not found")
	ErrNoSuitableServers   = errors.New("no suitable servers found, all servers are full or VIP")
	ErrRateLimited         = errors.New("rate limited")
	ErrQuotaExceeded       = errors.New("daily quota exceeded")
	ErrHandleExpired       = errors.New("handle expired or unknown")
	ErrForbidden           = errors.New("owner only")
)

// RateLimitedError carries the seconds a caller has to wait before retrying.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfter)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// QuotaExceededError carries the action and its daily cap.
type QuotaExceededError struct {
	Action string
	Cap    int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily %s limit reached (%d)", e.Action, e.Cap)
}

// Is reports whether target is ErrQuotaExceeded.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// InvalidInput wraps ErrInvalidInput with a message shown verbatim to the caller.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
