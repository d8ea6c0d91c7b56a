package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/middleware"
	"github.com/tkesici/greenhouse-manager/internal/models"
)

// GreenhouseStore is the greenhouse surface needed by the listing and history
// routes.
type GreenhouseStore interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]models.Greenhouse, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type GreenhouseHandler struct {
	greenhouses GreenhouseStore
	telemetry   TelemetryStore
	gate        OwnershipGate
	logger      *zap.Logger
}

func NewGreenhouseHandler(greenhouses GreenhouseStore, telemetry TelemetryStore, gate OwnershipGate, logger *zap.Logger) *GreenhouseHandler {
	return &GreenhouseHandler{
		greenhouses: greenhouses,
		telemetry:   telemetry,
		gate:        gate,
		logger:      logger,
	}
}

// List godoc
// @Summary List a tenant's greenhouses
// @Tags greenhouses
// @Produce json
// @Param tenantId path int true "Tenant ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenant/{tenantId}/greenhouses [get]
func (h *GreenhouseHandler) List(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Param("tenantId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid tenant ID"))
		return
	}

	greenhouses, err := h.greenhouses.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Error("Failed to list greenhouses", zap.Error(err), zap.Int64("tenant_id", tenantID))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	if len(greenhouses) == 0 {
		c.JSON(http.StatusNotFound, errorBody("No greenhouses found for this tenant"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "greenhouses": greenhouses})
}

// SensorHistory godoc
// @Summary Full sensor history for a greenhouse, oldest first
// @Tags greenhouses
// @Produce json
// @Param greenhouseId path int true "Greenhouse ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /greenhouse/{greenhouseId}/sensors [get]
func (h *GreenhouseHandler) SensorHistory(c *gin.Context) {
	greenhouseID, ok := h.authorizeGreenhouse(c)
	if !ok {
		return
	}

	readings, err := h.telemetry.SensorHistory(c.Request.Context(), greenhouseID)
	if err != nil {
		h.logger.Error("Failed to fetch sensor history", zap.Error(err), zap.Int64("greenhouse_id", greenhouseID))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}
	if readings == nil {
		readings = []models.SensorReading{}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": readings})
}

// IrrigationHistory godoc
// @Summary Full irrigation command history for a greenhouse, oldest first
// @Tags greenhouses
// @Produce json
// @Param greenhouseId path int true "Greenhouse ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /greenhouse/{greenhouseId}/irrigation-history [get]
func (h *GreenhouseHandler) IrrigationHistory(c *gin.Context) {
	greenhouseID, ok := h.authorizeGreenhouse(c)
	if !ok {
		return
	}

	statuses, err := h.telemetry.ActuatorHistory(c.Request.Context(), models.ActuatorIrrigation, greenhouseID)
	if err != nil {
		h.logger.Error("Failed to fetch irrigation history", zap.Error(err), zap.Int64("greenhouse_id", greenhouseID))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}
	if statuses == nil {
		statuses = []models.ActuatorStatus{}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": statuses})
}

// authorizeGreenhouse validates the :greenhouseId parameter and applies the
// same tenant check as the tenant-scoped routes: non-admin callers may only
// read history for greenhouses their token's tenant owns. Admins and
// unauthenticated deployments fall back to a bare existence check. Writes the
// error response and returns ok=false on failure.
func (h *GreenhouseHandler) authorizeGreenhouse(c *gin.Context) (int64, bool) {
	greenhouseID, err := strconv.ParseInt(c.Param("greenhouseId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid greenhouse ID"))
		return 0, false
	}

	role, hasRole := c.Get(middleware.ContextRole)
	tenantID, hasTenant := c.Get(middleware.ContextTenantID)

	if hasRole && hasTenant && role != models.RoleAdmin {
		if !h.gate.Allowed(c.Request.Context(), tenantID.(int64), greenhouseID) {
			c.JSON(http.StatusForbidden, errorBody("Greenhouse does not belong to tenant"))
			return 0, false
		}
		return greenhouseID, true
	}

	exists, err := h.greenhouses.Exists(c.Request.Context(), greenhouseID)
	if err != nil {
		h.logger.Error("Failed to check greenhouse existence", zap.Error(err), zap.Int64("greenhouse_id", greenhouseID))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return 0, false
	}
	if !exists {
		c.JSON(http.StatusNotFound, errorBody("Greenhouse not found"))
		return 0, false
	}

	return greenhouseID, true
}
