package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/curbside/internal/core/domain"
)

var errDisconnected = errors.New("disconnected")

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, provider_error, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errBadGateway returns a 502 error for upstream provider failures.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "provider_error", msg)
}

// errTimeout returns a 504 error.
func errTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, 504, "timeout", msg)
}

// errFromService maps a CrossingService error onto a response.
func errFromService(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrProviderMalformed):
		return errBadGateway(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return errTimeout(c, "request timed out")
	default:
		LoggerFromCtx(c.UserContext()).Error("crossing query failed", "error", err)
		return errInternal(c, "internal error")
	}
}
