package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sunriver-travel/nilecms/internal/types"
)

// ErrorResponse sends a structured error body with the given status.
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response.
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// ConflictResponse sends a 409 version conflict. The caller should reload
// the item and retry with the current version.
func ConflictResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":       fiber.StatusConflict,
		"message":      "Version conflict - reload the item and retry with its current version.",
		"ok":           false,
		"versionError": true,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         "version",
	})
}

// ValidationErrorResponse sends a 400 with the per-field error map.
func ValidationErrorResponse(c *fiber.Ctx, errs types.FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":    fiber.StatusBadRequest,
		"message":   "Validation failed",
		"ok":        false,
		"errors":    errs,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      "validation",
	})
}

// MutationSuccessResponse sends a success envelope for batch mutations.
func MutationSuccessResponse(c *fiber.Ctx, affectedRows int64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"affectedRows": affectedRows,
	})
}

// ErrorResponseStruct defines the schema for error responses.
type ErrorResponseStruct struct {
	Status       int               `json:"status"`
	Message      string            `json:"message"`
	Ok           bool              `json:"ok"`
	Timestamp    string            `json:"timestamp"`
	URL          string            `json:"url"`
	Type         string            `json:"type,omitempty"`
	VersionError bool              `json:"versionError,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses.
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}
