package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Telemetry metrics
	SensorReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_readings_ingested_total",
			Help: "Total number of sensor readings accepted from field devices",
		},
		[]string{"tenant_id"},
	)

	ActuatorCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actuator_commands_total",
			Help: "Total number of actuator commands appended",
		},
		[]string{"kind", "source"}, // source: user, device
	)

	// Authorization metrics
	TenancyChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenancy_checks_total",
			Help: "Total number of tenancy gate decisions",
		},
		[]string{"outcome"}, // outcome: allowed, denied, indeterminate
	)

	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected authentication attempts",
		},
		[]string{"reason"}, // reason: missing_token, invalid_token, expired_token, bad_credentials, device_key
	)

	// Event publishing metrics
	TelemetryEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_events_published_total",
			Help: "Total number of telemetry events published to the broker",
		},
		[]string{"status"}, // status: success, failed
	)
)

// IncrementAPIRequests increments the API request counter.
func IncrementAPIRequests(method, endpoint, statusCode string) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
}

// RecordAPIRequestDuration records API request duration.
func RecordAPIRequestDuration(method, endpoint string, duration float64) {
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// IncrementSensorReadings increments the device ingest counter.
func IncrementSensorReadings(tenantID string) {
	SensorReadingsIngested.WithLabelValues(tenantID).Inc()
}

// IncrementActuatorCommands increments the actuator command counter.
func IncrementActuatorCommands(kind, source string) {
	ActuatorCommandsTotal.WithLabelValues(kind, source).Inc()
}

// IncrementTenancyChecks increments the gate decision counter.
func IncrementTenancyChecks(outcome string) {
	TenancyChecksTotal.WithLabelValues(outcome).Inc()
}

// IncrementAuthFailures increments the rejected-authentication counter.
func IncrementAuthFailures(reason string) {
	AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// IncrementEventsPublished increments the broker publish counter.
func IncrementEventsPublished(status string) {
	TelemetryEventsPublished.WithLabelValues(status).Inc()
}
