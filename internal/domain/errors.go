package domain

import (
	"errors"
	"fmt"

	"git.appkode.ru/pub/go/failure"
)

// AppError is a domain error carrying a stable error code. Transports map
// the code to a status; the message is safe to show to callers.
type AppError struct {
	Code    failure.ErrorCode
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func NewError(code failure.ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Errorf(code failure.ErrorCode, format string, args ...any) *AppError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WrapError attaches a domain code and message to an existing error.
func WrapError(err error, code failure.ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, cause: err}
}

func IsAppError(err error) bool {
	_, ok := asAppError(err)
	return ok
}

// GetCode extracts the code of the outermost AppError in the chain.
func GetCode(err error) (failure.ErrorCode, bool) {
	appErr, ok := asAppError(err)
	if !ok {
		return "", false
	}

	return appErr.Code, true
}

func HasCode(err error, code failure.ErrorCode) bool {
	c, ok := GetCode(err)
	return ok && c == code
}

// MessageOf returns the caller-safe message of the outermost AppError, or
// fallback when err carries none.
func MessageOf(err error, fallback string) string {
	appErr, ok := asAppError(err)
	if !ok {
		return fallback
	}

	return appErr.Message
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)

	return appErr, ok
}
