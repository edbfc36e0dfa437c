package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers deciding how to surface it.
type Kind string

const (
	KindValidation             Kind = "VALIDATION_ERROR"
	KindInsufficientFunds      Kind = "INSUFFICIENT_FUNDS"
	KindBelowMinimumWithdrawal Kind = "BELOW_MINIMUM_WITHDRAWAL"
	KindInvalidTransition      Kind = "INVALID_TRANSITION"
	KindMeetingNotConfigured   Kind = "MEETING_NOT_CONFIGURED"
	KindNotFound               Kind = "NOT_FOUND"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindForbidden              Kind = "FORBIDDEN"
	KindRetryable              Kind = "RETRYABLE"
	KindInternal               Kind = "INTERNAL_ERROR"
)

// Error is a typed application error. Package-level *Error values act as
// sentinels; errors derived from them with Wrapf keep the sentinel in the
// chain so errors.Is keeps working.
type Error struct {
	Kind    Kind                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		var inner *Error
		if !errors.As(e.Cause, &inner) {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail returns a copy of e carrying an extra detail. Sentinels are
// never mutated.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Details: details, Cause: e.Cause}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind and message to an arbitrary cause.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// Wrapf derives a more specific error from a sentinel, inheriting its kind.
func Wrapf(sentinel error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindOf(sentinel), Message: fmt.Sprintf(format, args...), Cause: sentinel}
}

// Validation builds a field-level validation error.
func Validation(field, reason string) *Error {
	return New(KindValidation, fmt.Sprintf("%s %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// KindOf reports the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
