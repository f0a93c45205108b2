package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sunriver-travel/nilecms/internal/services"
	"github.com/sunriver-travel/nilecms/internal/types"
	"github.com/sunriver-travel/nilecms/internal/utils"
)

// ContentHandler handles the admin content item routes.
type ContentHandler struct {
	Service *services.ContentService
}

// ListItems handles GET /api/admin/content/:modelId
// @Summary List content items
// @Description List items of a content model with status filter, search, sort, and paging
// @Tags Content
// @Produce json
// @Param modelId path string true "Content model id"
// @Param status query string false "Filter by status (draft|published)"
// @Param search query string false "Search over the model's search fields"
// @Param sortBy query string false "Sort key (createdAt|updatedAt|publishedAt|version|status)"
// @Param order query string false "asc or desc"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId} [get]
func (h *ContentHandler) ListItems(c *fiber.Ctx) error {
	opts := services.ListOptions{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		SortDesc: c.Query("order", "desc") != "asc",
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}

	items, total, err := h.Service.List(c.Context(), c.Params("modelId"), opts)
	if err != nil {
		return serviceError(c, err, "content.list")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items":  items,
		"total":  total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// CreateItem handles POST /api/admin/content/:modelId
// @Summary Create a content item
// @Description Create an item from a multipart form (fields + files) or a JSON field map
// @Tags Content
// @Accept json
// @Produce json
// @Param modelId path string true "Content model id"
// @Success 201 {object} models.ContentItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId} [post]
func (h *ContentHandler) CreateItem(c *fiber.Ctx) error {
	sub, err := parseSubmission(c)
	if err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "content.validation.input")
	}

	item, fieldErrs, err := h.Service.Create(c.Context(), c.Params("modelId"), sub, actorID(c))
	if err != nil {
		return serviceError(c, err, "content.create")
	}
	if fieldErrs != nil {
		return utils.ValidationErrorResponse(c, fieldErrs)
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetItem handles GET /api/admin/content/:modelId/:itemId
// @Summary Get a content item
// @Tags Content
// @Produce json
// @Param modelId path string true "Content model id"
// @Param itemId path string true "Item id"
// @Success 200 {object} models.ContentItem
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId}/{itemId} [get]
func (h *ContentHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.Service.Get(c.Context(), c.Params("modelId"), c.Params("itemId"))
	if err != nil {
		return serviceError(c, err, "content.get")
	}
	return c.Status(fiber.StatusOK).JSON(item)
}

// ListVersions handles GET /api/admin/content/:modelId/:itemId/versions
// @Summary List an item's version history
// @Tags Content
// @Produce json
// @Param modelId path string true "Content model id"
// @Param itemId path string true "Item id"
// @Success 200 {array} models.ContentVersion
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId}/{itemId}/versions [get]
func (h *ContentHandler) ListVersions(c *fiber.Ctx) error {
	versions, err := h.Service.Versions(c.Context(), c.Params("modelId"), c.Params("itemId"))
	if err != nil {
		return serviceError(c, err, "content.versions")
	}
	return c.Status(fiber.StatusOK).JSON(versions)
}

// UpdateItem handles PATCH /api/admin/content/:modelId/:itemId
// @Summary Update a content item
// @Description Partial update; fields absent from the submission are preserved. Fails with 409 when a concurrent update won.
// @Tags Content
// @Accept json
// @Produce json
// @Param modelId path string true "Content model id"
// @Param itemId path string true "Item id"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId}/{itemId} [patch]
func (h *ContentHandler) UpdateItem(c *fiber.Ctx) error {
	sub, err := parseSubmission(c)
	if err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "content.validation.input")
	}

	item, fieldErrs, err := h.Service.Update(c.Context(), c.Params("modelId"), c.Params("itemId"), sub, actorID(c))
	if err != nil {
		return serviceError(c, err, "content.update")
	}
	if fieldErrs != nil {
		return utils.ValidationErrorResponse(c, fieldErrs)
	}

	return c.Status(fiber.StatusOK).JSON(item)
}

// DeleteItem handles DELETE /api/admin/content/:modelId/:itemId
// @Summary Delete a content item and its version history
// @Tags Content
// @Param modelId path string true "Content model id"
// @Param itemId path string true "Item id"
// @Success 204 "No content"
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId}/{itemId} [delete]
func (h *ContentHandler) DeleteItem(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.Context(), c.Params("modelId"), c.Params("itemId")); err != nil {
		return serviceError(c, err, "content.delete")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RestoreItem handles POST /api/admin/content/:modelId/:itemId
// @Summary Restore a content item to a past version
// @Description Rewinds data and version to the snapshot; no new snapshot is appended
// @Tags Content
// @Accept json
// @Produce json
// @Param modelId path string true "Content model id"
// @Param itemId path string true "Item id"
// @Param body body object true "Target version, e.g. {\"version\": 2}"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId}/{itemId} [post]
func (h *ContentHandler) RestoreItem(c *fiber.Ctx) error {
	var body struct {
		Version types.FlexUint64 `json:"version"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "content.validation.input")
	}
	if body.Version.Uint64() == 0 {
		return utils.ErrorResponse(c, "version is required", fiber.StatusBadRequest, "content.validation.input")
	}

	item, err := h.Service.Restore(c.Context(), c.Params("modelId"), c.Params("itemId"), body.Version.Uint64(), actorID(c))
	if err != nil {
		return serviceError(c, err, "content.restore")
	}

	return c.Status(fiber.StatusOK).JSON(item)
}

// BulkAction handles PUT /api/admin/content/:modelId
// @Summary Apply one action to a set of items
// @Description action is one of publish, unpublish, delete, update (update takes shared data)
// @Tags Content
// @Accept json
// @Produce json
// @Param modelId path string true "Content model id"
// @Param body body object true "Bulk request, e.g. {\"ids\": [...], \"action\": \"publish\"}"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/content/{modelId} [put]
func (h *ContentHandler) BulkAction(c *fiber.Ctx) error {
	var body struct {
		IDs    types.FlexList[string] `json:"ids"`
		Action string                 `json:"action"`
		Data   types.FieldMap         `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "content.validation.input")
	}
	if body.Action == "" || len(body.IDs) == 0 {
		return utils.ErrorResponse(c, "ids and action are required", fiber.StatusBadRequest, "content.validation.input")
	}

	affected, err := h.Service.Bulk(c.Context(), c.Params("modelId"), services.BulkInput{
		IDs:    body.IDs.Slice(),
		Action: body.Action,
		Data:   body.Data,
	}, actorID(c))
	if err != nil {
		return serviceError(c, err, "content.bulk")
	}

	return utils.MutationSuccessResponse(c, affected)
}
