package http

import (
	"net/http"
	"strconv"

	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalHandler handles HTTP requests for signals.
type SignalHandler struct {
	store  repository.Store
	logger *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(store repository.Store, log *logger.Logger) *SignalHandler {
	return &SignalHandler{store: store, logger: log}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListSignals)
	g.GET("/:id", h.GetSignal)
}

// ListSignals godoc
// @Summary List recent signals
// @Tags signals
// @Produce json
// @Param limit query int false "Max rows, default 50"
// @Success 200 {array} entity.Signal
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals [get]
func (h *SignalHandler) ListSignals(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	signals, err := h.store.ListSignals(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list signals"})
	}
	return c.JSON(http.StatusOK, signals)
}

// GetSignal godoc
// @Summary Get a signal by ID
// @Tags signals
// @Produce json
// @Param id path int true "Signal ID"
// @Success 200 {object} entity.Signal
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /signals/{id} [get]
func (h *SignalHandler) GetSignal(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signal ID"})
	}

	signal, err := h.store.GetSignal(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Failed to get signal", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get signal"})
	}
	if signal == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Signal not found"})
	}
	return c.JSON(http.StatusOK, signal)
}
