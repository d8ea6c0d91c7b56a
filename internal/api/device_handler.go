package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/events"
	"github.com/tkesici/greenhouse-manager/internal/metrics"
	"github.com/tkesici/greenhouse-manager/internal/models"
	"github.com/tkesici/greenhouse-manager/internal/repository"
)

// DeviceHandler serves the Arduino-facing routes. Devices authenticate with
// the shared device key (enforced by middleware), and the status reads return
// bare text tokens the firmware can parse without a JSON decoder.
type DeviceHandler struct {
	telemetry TelemetryStore
	gate      OwnershipGate
	publisher events.Publisher
	logger    *zap.Logger
}

func NewDeviceHandler(telemetry TelemetryStore, gate OwnershipGate, publisher events.Publisher, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		telemetry: telemetry,
		gate:      gate,
		publisher: publisher,
		logger:    logger,
	}
}

// PushReading godoc
// @Summary Ingest a sensor reading from a field device
// @Tags device
// @Produce json
// @Param tenantId path int true "Tenant ID"
// @Param greenhouseId path int true "Greenhouse ID"
// @Param temperature path number true "Temperature"
// @Param humidity path number true "Humidity"
// @Param key query string true "Device shared secret"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /arduino/tenant/{tenantId}/greenhouse/{greenhouseId}/push/{temperature}/{humidity} [get]
func (h *DeviceHandler) PushReading(c *gin.Context) {
	tenantID, greenhouseID, ok := parseScopedIDs(c)
	if !ok {
		c.JSON(http.StatusBadRequest, errorBody("Invalid input parameters"))
		return
	}

	temperature, errT := strconv.ParseFloat(c.Param("temperature"), 64)
	humidity, errH := strconv.ParseFloat(c.Param("humidity"), 64)
	if errT != nil || errH != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid input parameters"))
		return
	}

	if !h.gate.Allowed(c.Request.Context(), tenantID, greenhouseID) {
		c.JSON(http.StatusForbidden, errorBody("Greenhouse does not belong to tenant"))
		return
	}

	reading := &models.SensorReading{
		GreenhouseID: greenhouseID,
		Temperature:  temperature,
		Humidity:     humidity,
	}

	if err := h.telemetry.InsertSensorReading(c.Request.Context(), reading); err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	metrics.IncrementSensorReadings(strconv.FormatInt(tenantID, 10))
	h.publisher.PublishSensorReading(c.Request.Context(), tenantID, reading)

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"greenhouseId": greenhouseID,
		"temperature":  temperature,
		"humidity":     humidity,
	})
}

// ActuatorStatus returns the plain-text latest-status handler for one actuator
// kind. Error bodies are bare text tokens: INVALID_ID, UNAUTHORIZED, ERROR,
// and UNKNOWN when no status has been recorded yet.
func (h *DeviceHandler) ActuatorStatus(kind models.ActuatorKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, greenhouseID, ok := parseScopedIDs(c)
		if !ok {
			c.String(http.StatusBadRequest, "INVALID_ID")
			return
		}

		if !h.gate.Allowed(c.Request.Context(), tenantID, greenhouseID) {
			c.String(http.StatusForbidden, "UNAUTHORIZED")
			return
		}

		status, err := h.telemetry.LatestActuatorStatus(c.Request.Context(), kind, greenhouseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.String(http.StatusOK, "UNKNOWN")
				return
			}
			h.logger.Error("Failed to fetch actuator status for device",
				zap.Error(err),
				zap.String("kind", string(kind)),
				zap.Int64("greenhouse_id", greenhouseID))
			c.String(http.StatusInternalServerError, "ERROR")
			return
		}

		c.String(http.StatusOK, status.Status)
	}
}
