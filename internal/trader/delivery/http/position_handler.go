package http

import (
	"net/http"
	"strconv"

	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PositionHandler handles HTTP requests for positions.
type PositionHandler struct {
	store  repository.Store
	logger *logger.Logger
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(store repository.Store, log *logger.Logger) *PositionHandler {
	return &PositionHandler{store: store, logger: log}
}

// RegisterRoutes registers the position routes to the Echo group.
func (h *PositionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListPositions)
	g.GET("/:id", h.GetPosition)
}

// ListPositions godoc
// @Summary List positions
// @Tags positions
// @Produce json
// @Param status query string false "Filter by position status"
// @Param limit query int false "Max rows, default 50"
// @Success 200 {array} entity.Position
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions [get]
func (h *PositionHandler) ListPositions(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	positions, err := h.store.ListPositions(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		h.logger.Error("Failed to list positions", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list positions"})
	}
	return c.JSON(http.StatusOK, positions)
}

// GetPosition godoc
// @Summary Get a position by ID
// @Tags positions
// @Produce json
// @Param id path int true "Position ID"
// @Success 200 {object} entity.Position
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /positions/{id} [get]
func (h *PositionHandler) GetPosition(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
	}

	position, err := h.store.GetPosition(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Failed to get position", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get position"})
	}
	if position == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Position not found"})
	}
	return c.JSON(http.StatusOK, position)
}
