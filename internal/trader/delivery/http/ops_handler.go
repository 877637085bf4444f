package http

import (
	"net/http"

	"stock-news-trader/internal/trader/broker"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/internal/trader/metrics"
	"stock-news-trader/internal/trader/repository"
	"stock-news-trader/internal/trader/risk"
	"stock-news-trader/pkg/logger"
	"stock-news-trader/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// OpsHandler serves the operator surface: health, kill switch, risk state
// and metrics.
type OpsHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	orderBroker broker.Broker
	killSwitch  *risk.KillSwitch
	store       repository.Store
	logger      *logger.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	orderBroker broker.Broker,
	killSwitch *risk.KillSwitch,
	store repository.Store,
	log *logger.Logger,
) *OpsHandler {
	return &OpsHandler{
		db:          db,
		redisClient: redisClient,
		orderBroker: orderBroker,
		killSwitch:  killSwitch,
		store:       store,
		logger:      log,
	}
}

// RegisterRoutes registers the ops routes to the Echo group.
func (h *OpsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.GetHealth)
	g.GET("/kill-switch", h.GetKillSwitch)
	g.POST("/kill-switch", h.SetKillSwitch)
	g.GET("/risk-state", h.GetRiskState)
	g.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// GetHealth godoc
// @Summary Service health
// @Description Pings the database and redis and asks the broker for its own diagnosis
// @Tags ops
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *OpsHandler) GetHealth(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{
		"database": "OK",
		"redis":    "OK",
	}

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = "DOWN"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = "DOWN"
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = "DOWN"
	}

	brokerReport, err := h.orderBroker.HealthCheck(ctx)
	if err != nil {
		brokerReport = &dto.HealthReport{
			Broker: h.orderBroker.Name(),
			Status: dto.HealthCritical,
			Reason: err.Error(),
		}
	}

	status := dto.HealthOK
	switch {
	case checks["database"] == "DOWN" || checks["redis"] == "DOWN" || brokerReport.Status == dto.HealthCritical:
		status = dto.HealthCritical
	case brokerReport.Status == dto.HealthWarn:
		status = dto.HealthWarn
	}

	code := http.StatusOK
	if status == dto.HealthCritical {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, dto.HealthResponse{Status: status, Checks: checks, Broker: brokerReport})
}

// GetKillSwitch godoc
// @Summary Read the kill switch
// @Tags ops
// @Produce json
// @Success 200 {object} dto.KillSwitchState
// @Router /kill-switch [get]
func (h *OpsHandler) GetKillSwitch(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.KillSwitchState{Engaged: h.killSwitch.Engaged()})
}

// SetKillSwitch godoc
// @Summary Toggle the kill switch
// @Description Engaging the switch blocks every new entry before any position or order row is written
// @Tags ops
// @Accept json
// @Produce json
// @Param state body dto.KillSwitchState true "Desired switch state"
// @Success 200 {object} dto.KillSwitchState
// @Failure 400 {object} dto.ErrorResponse
// @Router /kill-switch [post]
func (h *OpsHandler) SetKillSwitch(c echo.Context) error {
	var req dto.KillSwitchState
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	if req.Engaged {
		h.killSwitch.Engage()
	} else {
		h.killSwitch.Release()
	}
	h.logger.Warn("Kill switch toggled", logger.Field("engaged", req.Engaged))

	return c.JSON(http.StatusOK, dto.KillSwitchState{Engaged: h.killSwitch.Engaged()})
}

// GetRiskState godoc
// @Summary Today's risk state
// @Description Returns the risk row for the current trade date, creating the default row if absent
// @Tags ops
// @Produce json
// @Success 200 {object} entity.RiskState
// @Failure 500 {object} dto.ErrorResponse
// @Router /risk-state [get]
func (h *OpsHandler) GetRiskState(c echo.Context) error {
	ctx := c.Request().Context()
	tradeDate := utils.TradeDate(utils.TimeNowKST())

	if err := h.store.EnsureRiskState(ctx, tradeDate); err != nil {
		h.logger.Error("Failed to ensure risk state", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to ensure risk state"})
	}
	state, err := h.store.GetRiskState(ctx, tradeDate)
	if err != nil {
		h.logger.Error("Failed to get risk state", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get risk state"})
	}

	return c.JSON(http.StatusOK, state)
}
