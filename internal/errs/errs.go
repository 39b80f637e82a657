// Package errs defines the error taxonomy used across the signal
// pipeline (spec §7). Each kind is a distinct type so callers can
// distinguish them with errors.As instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

// NoDataError means an external source returned empty or unparseable
// data. Callers yield a neutral factor and proceed.
type NoDataError struct {
	Source string
	Symbol string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data from %s for %s", e.Source, e.Symbol)
}

// RateLimitError means a token-bucket acquire blocked or a vendor
// signalled a rate limit. Callers log and continue.
type RateLimitError struct {
	Source string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Source)
}

// TransientNetworkError wraps a network failure that may succeed on a
// later attempt. No code in this module constructs or retries it, and
// nothing converts it to NoDataError.
type TransientNetworkError struct {
	Source string
	Err    error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error from %s: %v", e.Source, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// BadInput means malformed symbol or missing required config; it is
// returned straight to the caller, never swallowed.
type BadInput struct {
	Field  string
	Reason string
}

func (e *BadInput) Error() string {
	return fmt.Sprintf("bad input %s: %s", e.Field, e.Reason)
}

// InternalInvariantViolation means a core invariant broke (negative
// open-position quantity, corrupted cache row). Always logged and
// alerted, never silently swallowed.
type InternalInvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated: %s (%s)", e.Invariant, e.Detail)
}

// AsNoData reports whether err is (or wraps) a NoDataError.
func AsNoData(err error) bool {
	var nd *NoDataError
	return errors.As(err, &nd)
}
