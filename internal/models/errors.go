package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes forming the application error taxonomy.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeForbidden          = "FORBIDDEN"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeLimitExceeded      = "LIMIT_EXCEEDED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Response is the uniform envelope carried by every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
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

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewLimitExceededError(message string) *AppError {
	return &AppError{
		Code:    CodeLimitExceeded,
		Message: message,
	}
}

func NewServiceUnavailableError(message string) *AppError {
	return &AppError{
		Code:    CodeServiceUnavailable,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForError maps an error to the HTTP status of its taxonomy code.
// Anything that is not an AppError is Unhandled and maps to 500.
func StatusForError(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusConflict
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeLimitExceeded:
		return fiber.StatusUnprocessableEntity
	case CodeServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes a success envelope with the given payload.
func Respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

// RespondMessage writes a success envelope with only a message.
func RespondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Response{Success: true, Message: message})
}

// RespondWithError writes a failure envelope, deriving the HTTP status from
// the error's taxonomy code.
func RespondWithError(c *fiber.Ctx, err error) error {
	status := StatusForError(err)

	message := "Internal server error"
	var appErr *AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	return c.Status(status).JSON(Response{Success: false, Message: message})
}
