package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes callers branch on.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION"
	KindBusinessRule ErrorKind = "BUSINESS_RULE"
	KindTransient    ErrorKind = "TRANSIENT"
	KindRejected     ErrorKind = "REJECTED"
	KindCredential   ErrorKind = "CREDENTIAL"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
)

var (
	ErrUnknownRateCode   = errors.New("unknown rate code")
	ErrPeriodNotReady    = errors.New("period not ready")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCancelNotAllowed  = errors.New("cancellation not allowed")
	ErrRetryCapExceeded  = errors.New("retry cap exceeded")
	ErrRetryNotDue       = errors.New("retry not due yet")
	ErrProofRetrieval    = errors.New("proof retrieval failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrFilingMismatch    = errors.New("filing frequency mismatch")
	ErrStaleSnapshot     = errors.New("transaction set changed since settlement")
	ErrActiveSubmission  = errors.New("document already has an active submission")
	ErrCarryForwardLimit = errors.New("carry-forward application exceeds remaining amount")
)

// Error is a structured failure carrying its kind, a stable code and, for
// validation failures, the offending field.
type Error struct {
	Kind      ErrorKind
	Code      string
	Field     string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewValidation builds a non-retryable input error for field.
func NewValidation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: "INVALID_" + upperSnake(field), Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewBusinessRule builds a rule violation wrapping sentinel.
func NewBusinessRule(sentinel error, format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Code: "RULE_VIOLATION", Message: fmt.Sprintf(format, args...), Cause: sentinel}
}

// NewTransient wraps an infrastructure failure that may be retried.
func NewTransient(code string, cause error) *Error {
	return &Error{Kind: KindTransient, Code: code, Message: "transient failure", Retryable: true, Cause: cause}
}

// NewCredential wraps a certificate or authentication failure.
func NewCredential(code, message string, cause error) *Error {
	return &Error{Kind: KindCredential, Code: code, Message: message, Cause: cause}
}

// NewRejected carries the authority's rejection code and message verbatim.
func NewRejected(code, message string) *Error {
	return &Error{Kind: KindRejected, Code: code, Message: message}
}

// NewNotFound reports a missing record.
func NewNotFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf("%s %q not found", what, id), Cause: ErrNotFound}
}

// KindOf classifies err. Context deadlines count as transient; anything
// unrecognised is treated as transient so it lands in the retry path rather
// than being dropped.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindTransient
}

// IsRetryable reports whether err belongs to the automatic retry path.
func IsRetryable(err error) bool { return KindOf(err) == KindTransient }

func upperSnake(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c == '.' || c == '-' || c == ' ':
			out = append(out, '_')
		case c >= 'A' && c <= 'Z' && i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z':
			out = append(out, '_', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
