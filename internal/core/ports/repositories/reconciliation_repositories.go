package repositories

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
)

// ReconciliationRepositoryFacade stores reconciliation reports.
type ReconciliationRepositoryFacade interface {
	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error
	ListReconciliations(ctx context.Context, accountID string, limit int, offset int) ([]domain.Reconciliation, error)
}
