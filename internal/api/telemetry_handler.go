package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/events"
	"github.com/tkesici/greenhouse-manager/internal/metrics"
	"github.com/tkesici/greenhouse-manager/internal/models"
	"github.com/tkesici/greenhouse-manager/internal/repository"
)

// OwnershipGate is the tenancy gate contract: fail-closed, boolean.
// *tenancy.Gate satisfies it.
type OwnershipGate interface {
	Allowed(ctx context.Context, tenantID, greenhouseID int64) bool
}

// TelemetryStore is the telemetry-store surface shared by the user-facing and
// device-facing handlers.
type TelemetryStore interface {
	LatestSensorReading(ctx context.Context, greenhouseID int64) (*models.SensorReading, error)
	InsertSensorReading(ctx context.Context, reading *models.SensorReading) error
	SensorHistory(ctx context.Context, greenhouseID int64) ([]models.SensorReading, error)
	LatestActuatorStatus(ctx context.Context, kind models.ActuatorKind, greenhouseID int64) (*models.ActuatorStatus, error)
	InsertActuatorStatus(ctx context.Context, kind models.ActuatorKind, status *models.ActuatorStatus) error
	ActuatorHistory(ctx context.Context, kind models.ActuatorKind, greenhouseID int64) ([]models.ActuatorStatus, error)
}

// TelemetryHandler serves the tenant-scoped latest reads and actuator command
// appends. One handler covers temperature, humidity, window and irrigation;
// the four resource types differ only in the field they project or the table
// they append to.
type TelemetryHandler struct {
	telemetry TelemetryStore
	gate      OwnershipGate
	publisher events.Publisher
	logger    *zap.Logger
}

func NewTelemetryHandler(telemetry TelemetryStore, gate OwnershipGate, publisher events.Publisher, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		telemetry: telemetry,
		gate:      gate,
		publisher: publisher,
		logger:    logger,
	}
}

// scopedIDs parses and validates the :tenantId/:greenhouseId pair and runs the
// tenancy gate. It writes the error response and returns ok=false on any
// failure; handlers must return immediately in that case.
func (h *TelemetryHandler) scopedIDs(c *gin.Context) (tenantID, greenhouseID int64, ok bool) {
	tenantID, greenhouseID, ok = parseScopedIDs(c)
	if !ok {
		c.JSON(http.StatusBadRequest, errorBody("Invalid tenant or greenhouse ID"))
		return 0, 0, false
	}

	if !h.gate.Allowed(c.Request.Context(), tenantID, greenhouseID) {
		c.JSON(http.StatusForbidden, errorBody("Greenhouse does not belong to tenant"))
		return 0, 0, false
	}

	return tenantID, greenhouseID, true
}

func parseScopedIDs(c *gin.Context) (tenantID, greenhouseID int64, ok bool) {
	tenantID, err := strconv.ParseInt(c.Param("tenantId"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	greenhouseID, err = strconv.ParseInt(c.Param("greenhouseId"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return tenantID, greenhouseID, true
}

// GetTemperature godoc
// @Summary Latest temperature for a greenhouse
// @Tags telemetry
// @Produce json
// @Param tenantId path int true "Tenant ID"
// @Param greenhouseId path int true "Greenhouse ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tenant/{tenantId}/greenhouse/{greenhouseId}/temperature [get]
func (h *TelemetryHandler) GetTemperature(c *gin.Context) {
	_, greenhouseID, ok := h.scopedIDs(c)
	if !ok {
		return
	}

	reading, err := h.latestReading(c, greenhouseID)
	if err != nil {
		return
	}

	var temperature *float64
	var timestamp *time.Time
	if reading != nil {
		temperature = &reading.Temperature
		timestamp = &reading.RecordedAt
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "temperature": temperature, "timestamp": timestamp})
}

// GetHumidity godoc
// @Summary Latest humidity for a greenhouse
// @Tags telemetry
// @Produce json
// @Param tenantId path int true "Tenant ID"
// @Param greenhouseId path int true "Greenhouse ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tenant/{tenantId}/greenhouse/{greenhouseId}/humidity [get]
func (h *TelemetryHandler) GetHumidity(c *gin.Context) {
	_, greenhouseID, ok := h.scopedIDs(c)
	if !ok {
		return
	}

	reading, err := h.latestReading(c, greenhouseID)
	if err != nil {
		return
	}

	var humidity *float64
	var timestamp *time.Time
	if reading != nil {
		humidity = &reading.Humidity
		timestamp = &reading.RecordedAt
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "humidity": humidity, "timestamp": timestamp})
}

// latestReading fetches the newest sensor row. An empty history is not an
// error: the caller gets a nil reading and renders null fields.
func (h *TelemetryHandler) latestReading(c *gin.Context, greenhouseID int64) (*models.SensorReading, error) {
	reading, err := h.telemetry.LatestSensorReading(c.Request.Context(), greenhouseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		h.logger.Error("Failed to fetch latest sensor reading", zap.Error(err), zap.Int64("greenhouse_id", greenhouseID))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return nil, err
	}
	return reading, nil
}

// GetActuator returns the latest-status handler for one actuator kind. The
// response key is the kind name, matching what clients already parse.
func (h *TelemetryHandler) GetActuator(kind models.ActuatorKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, greenhouseID, ok := h.scopedIDs(c)
		if !ok {
			return
		}

		status, err := h.telemetry.LatestActuatorStatus(c.Request.Context(), kind, greenhouseID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			h.logger.Error("Failed to fetch latest actuator status",
				zap.Error(err),
				zap.String("kind", string(kind)),
				zap.Int64("greenhouse_id", greenhouseID))
			c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
			return
		}

		resp := gin.H{"status": "success", string(kind): nil, "changed_by": nil, "timestamp": nil}
		if status != nil {
			resp[string(kind)] = status.Status
			resp["changed_by"] = status.ChangedBy
			resp["timestamp"] = status.RecordedAt
		}

		c.JSON(http.StatusOK, resp)
	}
}

// PostWindow godoc
// @Summary Append a window command
// @Tags telemetry
// @Accept json
// @Produce json
// @Param tenantId path int true "Tenant ID"
// @Param greenhouseId path int true "Greenhouse ID"
// @Param command body models.WindowCommandRequest true "Window command"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tenant/{tenantId}/greenhouse/{greenhouseId}/window [post]
func (h *TelemetryHandler) PostWindow(c *gin.Context) {
	var req models.WindowCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Window command required"))
		return
	}

	h.appendCommand(c, models.ActuatorWindow, req.Window, req.ChangedBy)
}

// PostIrrigation godoc
// @Summary Append an irrigation command
// @Tags telemetry
// @Accept json
// @Produce json
// @Param tenantId path int true "Tenant ID"
// @Param greenhouseId path int true "Greenhouse ID"
// @Param command body models.IrrigationCommandRequest true "Irrigation command"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tenant/{tenantId}/greenhouse/{greenhouseId}/irrigation [post]
func (h *TelemetryHandler) PostIrrigation(c *gin.Context) {
	var req models.IrrigationCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Irrigation command required"))
		return
	}

	h.appendCommand(c, models.ActuatorIrrigation, req.Irrigation, req.ChangedBy)
}

func (h *TelemetryHandler) appendCommand(c *gin.Context, kind models.ActuatorKind, value, changedBy string) {
	tenantID, greenhouseID, ok := h.scopedIDs(c)
	if !ok {
		return
	}

	if changedBy == "" {
		changedBy = "user"
	}

	status := &models.ActuatorStatus{
		GreenhouseID: greenhouseID,
		Status:       value,
		ChangedBy:    changedBy,
	}

	if err := h.telemetry.InsertActuatorStatus(c.Request.Context(), kind, status); err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	metrics.IncrementActuatorCommands(string(kind), "user")
	h.publisher.PublishActuatorCommand(c.Request.Context(), tenantID, kind, status)

	c.JSON(http.StatusOK, gin.H{"status": "success", "greenhouseId": greenhouseID, string(kind): value})
}
