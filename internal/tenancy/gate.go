// Package tenancy implements the ownership check binding a greenhouse to its
// tenant. Every tenant-scoped read or write must pass the gate first.
package tenancy

import (
	"context"

	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/metrics"
)

// Outcome classifies a gate decision. Denied and Indeterminate are
// distinguished internally for logs and metrics only; callers responding to
// clients collapse both into a generic forbidden.
type Outcome int

const (
	Allowed Outcome = iota
	Denied
	Indeterminate
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Decision is the full result of an ownership check. Err is set only when the
// outcome is Indeterminate.
type Decision struct {
	Outcome Outcome
	Err     error
}

// OwnershipChecker answers whether a greenhouse belongs to a tenant.
// *repository.GreenhouseRepository satisfies it.
type OwnershipChecker interface {
	ExistsForTenant(ctx context.Context, tenantID, greenhouseID int64) (bool, error)
}

type Gate struct {
	store  OwnershipChecker
	logger *zap.Logger
}

func NewGate(store OwnershipChecker, logger *zap.Logger) *Gate {
	return &Gate{
		store:  store,
		logger: logger,
	}
}

// Check queries ownership for the {tenant, greenhouse} pair. The underlying
// store is hit on every call; ownership is never cached.
func (g *Gate) Check(ctx context.Context, tenantID, greenhouseID int64) Decision {
	owned, err := g.store.ExistsForTenant(ctx, tenantID, greenhouseID)

	var decision Decision
	switch {
	case err != nil:
		decision = Decision{Outcome: Indeterminate, Err: err}
		g.logger.Error("Ownership check failed",
			zap.Error(err),
			zap.Int64("tenant_id", tenantID),
			zap.Int64("greenhouse_id", greenhouseID))
	case owned:
		decision = Decision{Outcome: Allowed}
	default:
		decision = Decision{Outcome: Denied}
		g.logger.Warn("Greenhouse does not belong to tenant",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("greenhouse_id", greenhouseID))
	}

	metrics.IncrementTenancyChecks(decision.Outcome.String())
	return decision
}

// Allowed collapses Check into the fail-closed boolean contract: inability to
// prove ownership is treated identically to disproven ownership.
func (g *Gate) Allowed(ctx context.Context, tenantID, greenhouseID int64) bool {
	return g.Check(ctx, tenantID, greenhouseID).Outcome == Allowed
}
