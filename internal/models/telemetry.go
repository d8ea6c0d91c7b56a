package models

import "time"

// ActuatorKind names an append-only actuator status log. Window and irrigation
// share one shape and one set of repository queries.
type ActuatorKind string

const (
	ActuatorWindow     ActuatorKind = "window"
	ActuatorIrrigation ActuatorKind = "irrigation"
)

// SensorReading is one append-only temperature/humidity sample for a greenhouse.
// The latest reading is the one with the maximum recorded_at.
type SensorReading struct {
	GreenhouseID int64     `json:"-" db:"greenhouse_id"`
	Temperature  float64   `json:"temperature" db:"temperature"`
	Humidity     float64   `json:"humidity" db:"humidity"`
	RecordedAt   time.Time `json:"recorded_at" db:"recorded_at"`
}

// ActuatorStatus is one append-only command log entry for a window or
// irrigation actuator.
type ActuatorStatus struct {
	GreenhouseID int64     `json:"-" db:"greenhouse_id"`
	Status       string    `json:"status" db:"status"`
	ChangedBy    string    `json:"changed_by" db:"changed_by"`
	RecordedAt   time.Time `json:"recorded_at" db:"recorded_at"`
}

type WindowCommandRequest struct {
	Window    string `json:"window" binding:"required"`
	ChangedBy string `json:"changed_by,omitempty"`
}

type IrrigationCommandRequest struct {
	Irrigation string `json:"irrigation" binding:"required"`
	ChangedBy  string `json:"changed_by,omitempty"`
}
