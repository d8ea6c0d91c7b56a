package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/models"
)

type TenantRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTenantRepository(db *pgxpool.Pool, logger *zap.Logger) *TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (name)
		VALUES ($1)
		RETURNING id, created_at`

	row := r.db.QueryRow(ctx, query, tenant.Name)

	if err := row.Scan(&tenant.ID, &tenant.CreatedAt); err != nil {
		r.logger.Error("Failed to create tenant", zap.Error(err), zap.String("name", tenant.Name))
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	r.logger.Info("Tenant created", zap.Int64("id", tenant.ID), zap.String("name", tenant.Name))
	return nil
}

func (r *TenantRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check tenant existence: %w", err)
	}

	return exists, nil
}
