package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// ItemHandler serves the JSON inventory API
type ItemHandler struct {
	itemService ports.ItemService
	logger      *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService ports.ItemService, logger *logger.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// Register mounts the item routes on g
func (h *ItemHandler) Register(g *echo.Group) {
	g.GET("", h.ListItems)
	g.POST("", h.CreateItem)
	g.GET("/summary", h.GetSummary)
	g.GET("/:id", h.GetItem)
	g.PUT("/:id", h.UpdateItem)
	g.DELETE("/:id", h.DeleteItem)
}

// ListItems godoc
// @Summary List items
// @Description List every item, or the items whose name contains q (case-insensitive)
// @Tags items
// @Produce json
// @Param q query string false "Name keyword"
// @Success 200 {object} ports.ItemListResponse
// @Router /items [get]
func (h *ItemHandler) ListItems(c echo.Context) error {
	query := c.QueryParam("q")
	items := h.itemService.ListItems(c.Request().Context(), query)

	return c.JSON(http.StatusOK, ports.ItemListResponse{
		Items:   items,
		Query:   query,
		Summary: entities.Summarize(items),
	})
}

// GetSummary godoc
// @Summary Inventory summary
// @Description Item count, low-stock count, units and stock value over the items matching q
// @Tags items
// @Produce json
// @Param q query string false "Name keyword"
// @Success 200 {object} entities.Summary
// @Router /items/summary [get]
func (h *ItemHandler) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.itemService.Summary(c.Request().Context(), c.QueryParam("q")))
}

// GetItem godoc
// @Summary Get item by ID
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} entities.Item
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /items/{id} [get]
func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := parseItemID(c.Param("id"))
	if err != nil {
		return err
	}

	item, err := h.itemService.GetItem(c.Request().Context(), id)
	if err != nil {
		return h.itemError(err, "Get item failed", id)
	}

	return c.JSON(http.StatusOK, item)
}

// CreateItem godoc
// @Summary Create an item
// @Description Add an item; stock and price must be 0 or greater
// @Tags items
// @Accept json
// @Produce json
// @Param request body ports.CreateItemRequest true "Item data"
// @Success 201 {object} entities.Item
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /items [post]
func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req ports.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.itemService.CreateItem(c.Request().Context(), req)
	if err != nil {
		return h.itemError(err, "Create item failed", 0)
	}

	return c.JSON(http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary Update an item
// @Description Replace name, stock and price of an item, keeping its id and position
// @Tags items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body ports.UpdateItemRequest true "Item data"
// @Success 200 {object} entities.Item
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /items/{id} [put]
func (h *ItemHandler) UpdateItem(c echo.Context) error {
	id, err := parseItemID(c.Param("id"))
	if err != nil {
		return err
	}

	var req ports.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.itemService.UpdateItem(c.Request().Context(), id, req)
	if err != nil {
		return h.itemError(err, "Update item failed", id)
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Delete an item
// @Description Remove an item. Deleting an unknown id also succeeds.
// @Tags items
// @Param id path int true "Item ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	id, err := parseItemID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.itemService.DeleteItem(c.Request().Context(), id); err != nil {
		return h.itemError(err, "Delete item failed", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// itemError maps service errors onto HTTP errors
func (h *ItemHandler) itemError(err error, msg string, id int64) error {
	switch {
	case errors.Is(err, entities.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Item not found")
	default:
		h.logger.Errorw(msg, "error", err.Error(), "item_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to access item storage").SetInternal(err)
	}
}

func parseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid item ID")
	}
	return id, nil
}

// Request/Response types

type ErrorResponse struct {
	Message string `json:"message"`
}
