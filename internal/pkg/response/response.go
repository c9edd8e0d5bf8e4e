package response

import "github.com/gofiber/fiber/v2"

// Error codes carried in the envelope next to the message
const (
	CodeFailedPrecondition = "failed-precondition"
	CodeInvalidArgument    = "invalid-argument"
	CodeNotFound           = "not-found"
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission-denied"
	CodeAlreadyExists      = "already-exists"
	CodeInternal           = "internal"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
		Code:    codeFor(statusCode),
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// PreconditionFailed sends a 412 response, used when a query needs an index
func PreconditionFailed(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusPreconditionFailed, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return CodeInvalidArgument
	case fiber.StatusUnauthorized:
		return CodeUnauthenticated
	case fiber.StatusForbidden:
		return CodePermissionDenied
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeAlreadyExists
	case fiber.StatusPreconditionFailed:
		return CodeFailedPrecondition
	default:
		return CodeInternal
	}
}
