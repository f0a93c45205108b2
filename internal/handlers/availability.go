package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sunriver-travel/nilecms/internal/services"
	"github.com/sunriver-travel/nilecms/internal/types"
	"github.com/sunriver-travel/nilecms/internal/utils"
)

const dateLayout = "2006-01-02"

// AvailabilityHandler handles the per-vessel calendar grid routes.
type AvailabilityHandler struct {
	Service *services.AvailabilityService
}

// GetRange handles GET /api/dashboard/dahabiyat/availability
// @Summary Fetch availability rows for a vessel and date range
// @Description Days without a row are "unset"; the calendar infers that from the gaps
// @Tags Availability
// @Produce json
// @Param dahabiyaId query string true "Vessel id"
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Success 200 {array} models.AvailabilityDate
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /dashboard/dahabiyat/availability [get]
func (h *AvailabilityHandler) GetRange(c *fiber.Ctx) error {
	dahabiyaID := c.Query("dahabiyaId")
	if dahabiyaID == "" {
		return utils.ErrorResponse(c, "dahabiyaId is required", fiber.StatusBadRequest, "availability.validation.input")
	}
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		return utils.ErrorResponse(c, "start must be YYYY-MM-DD", fiber.StatusBadRequest, "availability.validation.input")
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		return utils.ErrorResponse(c, "end must be YYYY-MM-DD", fiber.StatusBadRequest, "availability.validation.input")
	}

	rows, err := h.Service.GetRange(c.Context(), dahabiyaID, start, end)
	if err != nil {
		return serviceError(c, err, "availability.range")
	}
	return c.Status(fiber.StatusOK).JSON(rows)
}

// SeedMonth handles POST /api/dashboard/dahabiyat/availability
// @Summary Create missing availability rows for a month
// @Description One row per day of the month without one, available=true, priced at the vessel's daily rate
// @Tags Availability
// @Accept json
// @Produce json
// @Param body body object true "e.g. {\"dahabiyaId\": \"...\", \"year\": 2026, \"month\": 9}"
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /dashboard/dahabiyat/availability [post]
func (h *AvailabilityHandler) SeedMonth(c *fiber.Ctx) error {
	var body struct {
		DahabiyaID string `json:"dahabiyaId"`
		Year       int    `json:"year"`
		Month      int    `json:"month"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "availability.validation.input")
	}
	if body.DahabiyaID == "" || body.Year < 2000 || body.Month < 1 || body.Month > 12 {
		return utils.ErrorResponse(c, "dahabiyaId, year and month are required", fiber.StatusBadRequest, "availability.validation.input")
	}

	created, err := h.Service.SeedMonth(c.Context(), body.DahabiyaID, body.Year, time.Month(body.Month))
	if err != nil {
		return serviceError(c, err, "availability.seed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"created":      created,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"affectedRows": created,
	})
}

// Toggle handles PATCH /api/dashboard/dahabiyat/availability
// @Summary Flip one cell between available and blocked
// @Description Fails with 404 for an unset cell; toggling never creates rows
// @Tags Availability
// @Accept json
// @Produce json
// @Param body body object true "e.g. {\"id\": 42}"
// @Success 200 {object} models.AvailabilityDate
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /dashboard/dahabiyat/availability [patch]
func (h *AvailabilityHandler) Toggle(c *fiber.Ctx) error {
	var body struct {
		ID types.FlexUint64 `json:"id"`
	}
	if err := c.BodyParser(&body); err != nil || body.ID.Uint64() == 0 {
		return utils.ErrorResponse(c, "id is required", fiber.StatusBadRequest, "availability.validation.input")
	}

	row, err := h.Service.Toggle(c.Context(), body.ID.Uint64())
	if err != nil {
		return serviceError(c, err, "availability.toggle")
	}
	return c.Status(fiber.StatusOK).JSON(row)
}
