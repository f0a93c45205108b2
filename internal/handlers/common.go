package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sunriver-travel/nilecms/internal/services"
	"github.com/sunriver-travel/nilecms/internal/types"
	"github.com/sunriver-travel/nilecms/internal/utils"
)

// parseSubmission reads a content submission from the request: multipart
// forms carry field values as strings plus file attachments; JSON bodies
// carry the field map directly (and no files).
func parseSubmission(c *fiber.Ctx) (services.Submission, error) {
	sub := services.Submission{
		Fields: types.FieldMap{},
		Files:  map[string]services.Upload{},
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return sub, err
		}
		for key, vals := range form.Value {
			if len(vals) > 0 {
				sub.Fields[key] = vals[0]
			}
		}
		for key, headers := range form.File {
			if len(headers) == 0 {
				continue
			}
			fh := headers[0]
			f, err := fh.Open()
			if err != nil {
				return sub, err
			}
			content, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return sub, err
			}
			sub.Files[key] = services.Upload{Name: fh.Filename, Content: content}
		}
		return sub, nil
	}

	if len(c.Body()) == 0 {
		return sub, nil
	}
	if err := c.BodyParser(&sub.Fields); err != nil {
		return sub, err
	}
	return sub, nil
}

// serviceError maps service failures onto the response taxonomy.
func serviceError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.ConflictResponse(c)
	case errors.Is(err, services.ErrInvalidAction):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	default:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
	}
}

// actorID returns the authenticated user's id when the auth middleware ran.
func actorID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}
