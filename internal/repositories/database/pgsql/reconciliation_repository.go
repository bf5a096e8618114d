package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/models"
)

type PgxReconciliationRepository struct {
	db DBTX
}

func newPgxReconciliationRepository(db DBTX) *PgxReconciliationRepository {
	return &PgxReconciliationRepository{db: db}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (
			reconciliation_id, account_id, statement_balance, system_balance, difference, as_of_date, notes,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		rec.ReconciliationID, rec.AccountID, rec.StatementBalance, rec.SystemBalance, rec.Difference,
		rec.AsOfDate, rec.Notes, rec.CreatedAt, rec.CreatedBy, rec.LastUpdatedAt, rec.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation %s: %w", rec.ReconciliationID, mapError(err))
	}
	return nil
}

// ListReconciliations returns the newest reports first.
func (r *PgxReconciliationRepository) ListReconciliations(ctx context.Context, accountID string, limit int, offset int) ([]domain.Reconciliation, error) {
	query := `
		SELECT reconciliation_id, account_id, statement_balance, system_balance, difference, as_of_date, notes,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM reconciliations
		WHERE account_id = $1
		ORDER BY created_at DESC, reconciliation_id
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, accountID, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations of account %s: %w", accountID, err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Reconciliation, error) {
		var m models.Reconciliation
		err := row.Scan(
			&m.ReconciliationID, &m.AccountID, &m.StatementBalance, &m.SystemBalance, &m.Difference,
			&m.AsOfDate, &m.Notes, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		return domain.Reconciliation{
			ReconciliationID: m.ReconciliationID,
			AccountID:        m.AccountID,
			StatementBalance: m.StatementBalance,
			SystemBalance:    m.SystemBalance,
			Difference:       m.Difference,
			AsOfDate:         m.AsOfDate,
			Notes:            m.Notes,
			AuditFields:      domain.AuditFields(m.AuditFields),
		}, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan reconciliations: %w", err)
	}
	return recs, nil
}
