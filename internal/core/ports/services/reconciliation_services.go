package services

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
)

// ReconciliationSvc compares statements against the ledger without mutating balances.
type ReconciliationSvc interface {
	Reconcile(ctx context.Context, accountID string, req dto.ReconcileRequest, userID string) (*domain.Reconciliation, error)
	ReconcileEntries(ctx context.Context, accountID string, req dto.ReconcileEntriesRequest, userID string) (*domain.ReconciliationStatus, error)
	GetReconciliationStatus(ctx context.Context, accountID string) (*domain.ReconciliationStatus, error)
	ListReconciliations(ctx context.Context, accountID string, limit int, offset int) ([]domain.Reconciliation, error)
}
