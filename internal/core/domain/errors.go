package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is reported in strict mode when the backend answered
// with nothing that looks like a prediction table.
var ErrMalformedPayload = errors.New("unrecognized upstream payload")

// ValidationError is returned when the inbound request cannot be forwarded.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// UpstreamError is returned when every attempt against the backend failed.
// Error() is the last cause verbatim so callers see the real upstream message.
type UpstreamError struct {
	Cause    error
	Attempts int
}

func (e *UpstreamError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("upstream failed after %d attempts", e.Attempts)
	}
	return e.Cause.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
