// Package apperr defines the structured error taxonomy returned at the
// request boundary. Handlers and services return *Error values; the app-level
// Fiber error handler maps codes onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeRoleNotAssigned  Code = "ROLE_NOT_ASSIGNED"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeOTPInvalid       Code = "OTP_INVALID"
	CodeDeliveryFailure  Code = "DELIVERY_FAILURE"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the taxonomy code from an error chain.
func CodeOf(err error) (Code, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodePermissionDenied, CodeRoleNotAssigned:
		return fiber.StatusForbidden
	case CodeValidation, CodeOTPInvalid:
		return fiber.StatusBadRequest
	case CodeDeliveryFailure:
		return fiber.StatusBadGateway
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}
