package binding

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-surveysync/pkg/survey"
)

// ErrorCode classifies binding failures.
type ErrorCode string

const (
	ErrCodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"
	ErrCodeMalformedSchema   ErrorCode = "MALFORMED_SCHEMA"
	ErrCodeUnknownInstance   ErrorCode = "UNKNOWN_INSTANCE"
	ErrCodeRejectedMutation  ErrorCode = "REJECTED_MUTATION"
	ErrCodeInvalidCommand    ErrorCode = "INVALID_COMMAND"
)

var (
	ErrMissingDependency = errors.New("binding: missing rendering dependency")
	ErrMalformedSchema   = survey.ErrMalformedSchema
	ErrUnknownInstance   = errors.New("binding: unknown instance")
	ErrRejectedMutation  = errors.New("binding: mutation rejected")
	ErrInvalidCommand    = errors.New("binding: invalid command")
)

// Error is returned by Initialize and Dispatch. It matches both the code's
// sentinel and the underlying cause with errors.Is.
type Error struct {
	Code     ErrorCode
	Instance string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("binding[%s] %s", e.Code, e.Instance)
	}
	return fmt.Sprintf("binding[%s] %s: %v", e.Code, e.Instance, e.Err)
}

func (e *Error) Unwrap() []error {
	out := []error{sentinelFor(e.Code)}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func newError(code ErrorCode, instance string, err error) *Error {
	return &Error{Code: code, Instance: instance, Err: err}
}

// CodeOf extracts the ErrorCode from err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func sentinelFor(code ErrorCode) error {
	switch code {
	case ErrCodeMissingDependency:
		return ErrMissingDependency
	case ErrCodeMalformedSchema:
		return ErrMalformedSchema
	case ErrCodeUnknownInstance:
		return ErrUnknownInstance
	case ErrCodeRejectedMutation:
		return ErrRejectedMutation
	default:
		return ErrInvalidCommand
	}
}
