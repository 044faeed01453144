// Package apperror holds the error taxonomy shared by the service and HTTP layers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindBadRequest           Kind = "BAD_REQUEST"
	KindPayloadTooLarge      Kind = "PAYLOAD_TOO_LARGE"
	KindUnsupportedMediaType Kind = "UNSUPPORTED_MEDIA_TYPE"
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindForbidden            Kind = "FORBIDDEN"
	KindInternal             Kind = "INTERNAL_ERROR"
)

// Repository-level sentinels. Services translate them into a Kind.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error           { return New(KindValidation, message) }
func BadRequest(message string) *Error           { return New(KindBadRequest, message) }
func PayloadTooLarge(message string) *Error      { return New(KindPayloadTooLarge, message) }
func UnsupportedMediaType(message string) *Error { return New(KindUnsupportedMediaType, message) }
func NotFound(message string) *Error             { return New(KindNotFound, message) }
func Conflict(message string) *Error             { return New(KindConflict, message) }
func Unauthorized(message string) *Error         { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error            { return New(KindForbidden, message) }

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf : returns the Kind of the first *Error in the chain, INTERNAL_ERROR otherwise
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUniqueViolation):
		return KindConflict
	default:
		return KindInternal
	}
}

// MessageOf : the human readable part safe to show to a caller
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if KindOf(err) == KindInternal {
		return "internal server error"
	}
	return err.Error()
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
