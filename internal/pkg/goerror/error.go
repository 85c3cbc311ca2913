package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeGone indicates a resource that existed but is no longer usable (e.g. an expired code).
	CodeGone
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeTimeout:
		return "ERROR_CODE_TIMEOUT"
	case CodeGone:
		return "ERROR_CODE_GONE"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is a structured error used across the application.
//
// It may wrap a sentinel kind so callers can match it with errors.Is, while the
// HTTP layer reads the user-facing message, type and code.
type Error struct {
	err        error
	msg        string
	errType    Type
	code       Code
	fields     map[string]string
	retryAfter time.Duration
}

func (e *Error) Error() string {
	if e.msg != "" && e.errType != TypeServer {
		return e.msg
	}

	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

// RetryAfter is the hint attached by NewRateLimit; zero when absent.
func (e *Error) RetryAfter() time.Duration {
	return e.retryAfter
}

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeConflict:
		return http.StatusConflict
	case CodeGone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func newErr(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return newErr(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return newErr(nil, msg, TypeBusiness, code)
}

// NewBusinessWrap is NewBusiness that also wraps kind, so errors.Is(err, kind) holds.
func NewBusinessWrap(kind error, msg string, code Code) error {
	return newErr(kind, msg, TypeBusiness, code)
}

// NewRateLimit creates a too-many-requests business error carrying a retry hint.
func NewRateLimit(kind error, msg string, retryAfter time.Duration) error {
	e := newErr(kind, msg, TypeBusiness, CodeTooManyRequest)
	e.retryAfter = retryAfter
	return e
}

// NewValidation creates a validation error with a plain message wrapping kind.
func NewValidation(kind error, msg string) error {
	return newErr(kind, msg, TypeValidation, CodeInvalidInput)
}

// NewInvalidInput creates a validation error for invalid input. Either err
// (a validator result) or field/message pairs in kv are reported.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newErr(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return newErr(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	e := newErr(nil, "Validation error", TypeValidation, CodeInvalidInput)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return newErr(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return newErr(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
