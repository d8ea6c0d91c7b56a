package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/models"
)

type GreenhouseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGreenhouseRepository(db *pgxpool.Pool, logger *zap.Logger) *GreenhouseRepository {
	return &GreenhouseRepository{
		db:     db,
		logger: logger,
	}
}

func (r *GreenhouseRepository) ListByTenant(ctx context.Context, tenantID int64) ([]models.Greenhouse, error) {
	query := `
		SELECT id, tenant_id, name, location
		FROM greenhouses
		WHERE tenant_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query greenhouses: %w", err)
	}
	defer rows.Close()

	var greenhouses []models.Greenhouse
	for rows.Next() {
		var gh models.Greenhouse
		if err := rows.Scan(&gh.ID, &gh.TenantID, &gh.Name, &gh.Location); err != nil {
			return nil, fmt.Errorf("failed to scan greenhouse: %w", err)
		}
		greenhouses = append(greenhouses, gh)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return greenhouses, nil
}

func (r *GreenhouseRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM greenhouses WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check greenhouse existence: %w", err)
	}

	return exists, nil
}

// ExistsForTenant reports whether the greenhouse belongs to the tenant. It is
// the data source behind the tenancy gate and must be re-queried on every
// request; ownership is never cached.
func (r *GreenhouseRepository) ExistsForTenant(ctx context.Context, tenantID, greenhouseID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM greenhouses WHERE id = $1 AND tenant_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, greenhouseID, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check greenhouse ownership: %w", err)
	}

	return exists, nil
}
