package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/careerforge/internal/models"
	"alfredoptarigan/careerforge/internal/services"
)

// Codes for failures that are not services.AppError kinds.
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal_error"
)

func errorJSON(c *fiber.Ctx, status int, message, details, code string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Error:   message,
		Details: details,
		Code:    code,
	})
}

// writeError renders an AppError with its own status and message. Anything
// else becomes a generic 500.
func writeError(c *fiber.Ctx, err error) error {
	appErr, ok := services.AsAppError(err)
	if !ok {
		log.Printf("❌ Request failed: %v\n", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to process request", "", CodeInternal)
	}

	if appErr.Kind == services.KindRateLimited {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(appErr.RetryAfter))
		c.Set("X-RateLimit-Remaining", "0")
	}
	if appErr.Status >= fiber.StatusInternalServerError {
		log.Printf("❌ %v\n", appErr)
	}

	return errorJSON(c, appErr.Status, appErr.Message, appErr.Details, string(appErr.Kind))
}

// NewErrorHandler is the fiber fallback for errors returned by handlers and
// middleware. An oversized multipart upload to a chat route is reported the
// same way the validator reports it.
func NewErrorHandler(maxPDFSize int64) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if !errors.As(err, &fiberErr) {
			return writeError(c, err)
		}

		if fiberErr.Code == fiber.StatusRequestEntityTooLarge && isMultipart(c) && isChatPath(c.Path()) {
			return writeError(c, services.NewFileTooLargeError(maxPDFSize))
		}

		code := CodeInvalidRequest
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			code = CodeNotFound
		case fiberErr.Code >= fiber.StatusInternalServerError:
			code = CodeInternal
		}
		return errorJSON(c, fiberErr.Code, fiberErr.Message, "", code)
	}
}

func isChatPath(path string) bool {
	return path == "/chat" || path == "/api/chat"
}
