package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/models"
)

// actuatorTables maps an actuator kind to its append-only status table. Window
// and irrigation logs share one schema; the kind only selects the table.
var actuatorTables = map[models.ActuatorKind]string{
	models.ActuatorWindow:     "window_status",
	models.ActuatorIrrigation: "irrigation_status",
}

type TelemetryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTelemetryRepository(db *pgxpool.Pool, logger *zap.Logger) *TelemetryRepository {
	return &TelemetryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TelemetryRepository) LatestSensorReading(ctx context.Context, greenhouseID int64) (*models.SensorReading, error) {
	query := `
		SELECT greenhouse_id, temperature, humidity, recorded_at
		FROM sensor_data
		WHERE greenhouse_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1`

	var reading models.SensorReading
	row := r.db.QueryRow(ctx, query, greenhouseID)

	err := row.Scan(&reading.GreenhouseID, &reading.Temperature, &reading.Humidity, &reading.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest sensor reading: %w", err)
	}

	return &reading, nil
}

func (r *TelemetryRepository) InsertSensorReading(ctx context.Context, reading *models.SensorReading) error {
	query := `
		INSERT INTO sensor_data (greenhouse_id, temperature, humidity)
		VALUES ($1, $2, $3)
		RETURNING recorded_at`

	row := r.db.QueryRow(ctx, query, reading.GreenhouseID, reading.Temperature, reading.Humidity)

	if err := row.Scan(&reading.RecordedAt); err != nil {
		r.logger.Error("Failed to insert sensor reading",
			zap.Error(err),
			zap.Int64("greenhouse_id", reading.GreenhouseID))
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}

	r.logger.Debug("Sensor reading inserted",
		zap.Int64("greenhouse_id", reading.GreenhouseID),
		zap.Float64("temperature", reading.Temperature),
		zap.Float64("humidity", reading.Humidity))
	return nil
}

func (r *TelemetryRepository) SensorHistory(ctx context.Context, greenhouseID int64) ([]models.SensorReading, error) {
	query := `
		SELECT greenhouse_id, temperature, humidity, recorded_at
		FROM sensor_data
		WHERE greenhouse_id = $1
		ORDER BY recorded_at ASC`

	rows, err := r.db.Query(ctx, query, greenhouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor history: %w", err)
	}
	defer rows.Close()

	var readings []models.SensorReading
	for rows.Next() {
		var reading models.SensorReading
		if err := rows.Scan(&reading.GreenhouseID, &reading.Temperature, &reading.Humidity, &reading.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}

func (r *TelemetryRepository) LatestActuatorStatus(ctx context.Context, kind models.ActuatorKind, greenhouseID int64) (*models.ActuatorStatus, error) {
	table, err := actuatorTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT greenhouse_id, status, changed_by, recorded_at
		FROM %s
		WHERE greenhouse_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1`, table)

	var status models.ActuatorStatus
	row := r.db.QueryRow(ctx, query, greenhouseID)

	err = row.Scan(&status.GreenhouseID, &status.Status, &status.ChangedBy, &status.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest %s status: %w", kind, err)
	}

	return &status, nil
}

func (r *TelemetryRepository) InsertActuatorStatus(ctx context.Context, kind models.ActuatorKind, status *models.ActuatorStatus) error {
	table, err := actuatorTable(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (greenhouse_id, status, changed_by)
		VALUES ($1, $2, $3)
		RETURNING recorded_at`, table)

	row := r.db.QueryRow(ctx, query, status.GreenhouseID, status.Status, status.ChangedBy)

	if err := row.Scan(&status.RecordedAt); err != nil {
		r.logger.Error("Failed to insert actuator status",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.Int64("greenhouse_id", status.GreenhouseID))
		return fmt.Errorf("failed to insert %s status: %w", kind, err)
	}

	r.logger.Debug("Actuator status inserted",
		zap.String("kind", string(kind)),
		zap.Int64("greenhouse_id", status.GreenhouseID),
		zap.String("status", status.Status))
	return nil
}

func (r *TelemetryRepository) ActuatorHistory(ctx context.Context, kind models.ActuatorKind, greenhouseID int64) ([]models.ActuatorStatus, error) {
	table, err := actuatorTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT greenhouse_id, status, changed_by, recorded_at
		FROM %s
		WHERE greenhouse_id = $1
		ORDER BY recorded_at ASC`, table)

	rows, err := r.db.Query(ctx, query, greenhouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s history: %w", kind, err)
	}
	defer rows.Close()

	var statuses []models.ActuatorStatus
	for rows.Next() {
		var status models.ActuatorStatus
		if err := rows.Scan(&status.GreenhouseID, &status.Status, &status.ChangedBy, &status.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan actuator status: %w", err)
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return statuses, nil
}

func actuatorTable(kind models.ActuatorKind) (string, error) {
	table, ok := actuatorTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown actuator kind: %s", kind)
	}
	return table, nil
}
