package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeKeyError          = "KEY_ERROR"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeContentNotFound   = "CONTENT_NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewKeyError(message string) *AppError {
	return &AppError{
		Code:    CodeKeyError,
		Message: message,
	}
}

func NewUserNotFoundError(id interface{}) *AppError {
	return &AppError{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("User with ID %v not found", id),
	}
}

func NewContentNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeContentNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidationError,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to the HTTP status handlers respond with.
// Errors that are not AppErrors are treated as internal failures.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeKeyError, CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeUserNotFound, CodeContentNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternalError {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError writes err using the status derived from its code.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}
