package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sunriver-travel/nilecms/internal/registry"
	"github.com/sunriver-travel/nilecms/internal/utils"
)

// ModelsHandler exposes the content model catalog read-only, for the
// dashboard to render forms from.
type ModelsHandler struct {
	Registry *registry.Registry
}

// ListModels handles GET /api/admin/models
// @Summary List content models
// @Tags Models
// @Produce json
// @Success 200 {array} registry.ContentModel
// @Router /admin/models [get]
func (h *ModelsHandler) ListModels(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.Registry.All())
}

// GetModel handles GET /api/admin/models/:modelId
// @Summary Get one content model
// @Tags Models
// @Produce json
// @Param modelId path string true "Content model id"
// @Success 200 {object} registry.ContentModel
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/models/{modelId} [get]
func (h *ModelsHandler) GetModel(c *fiber.Ctx) error {
	modelID := c.Params("modelId")
	model, ok := h.Registry.Get(modelID)
	if !ok {
		return utils.NotFoundResponse(c, "Content model '"+modelID+"' not found")
	}
	return c.Status(fiber.StatusOK).JSON(model)
}
