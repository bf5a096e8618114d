package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/models"
)

const pettyCashAccountColumns = `station_id, current_balance, min_limit, max_limit,
	last_replenishment_amount, last_replenishment_date, version,
	created_at, created_by, last_updated_at, last_updated_by`

const pettyCashEntryColumns = `entry_id, station_id, kind, amount, description, category, approval_status,
	requested_by, approved_by, approved_at, rejection_reason, funding_account_id, funding_entry_id,
	reversed, reversed_at, reversed_by,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPettyCashRepository struct {
	db DBTX
}

func newPgxPettyCashRepository(db DBTX) *PgxPettyCashRepository {
	return &PgxPettyCashRepository{db: db}
}

var _ portsrepo.PettyCashRepositoryFacade = (*PgxPettyCashRepository)(nil)

func scanPettyCashAccount(row pgx.Row) (*domain.PettyCashAccount, error) {
	var m models.PettyCashAccount
	err := row.Scan(
		&m.StationID,
		&m.CurrentBalance,
		&m.MinLimit,
		&m.MaxLimit,
		&m.LastReplenishmentAmount,
		&m.LastReplenishmentDate,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan petty cash account: %w", mapError(err))
	}
	return &domain.PettyCashAccount{
		StationID:               m.StationID,
		CurrentBalance:          m.CurrentBalance,
		MinLimit:                m.MinLimit,
		MaxLimit:                m.MaxLimit,
		LastReplenishmentAmount: m.LastReplenishmentAmount,
		LastReplenishmentDate:   m.LastReplenishmentDate,
		Version:                 m.Version,
		AuditFields:             domain.AuditFields(m.AuditFields),
	}, nil
}

func scanPettyCashEntry(row pgx.Row) (domain.PettyCashEntry, error) {
	var m models.PettyCashEntry
	err := row.Scan(
		&m.EntryID,
		&m.StationID,
		&m.Kind,
		&m.Amount,
		&m.Description,
		&m.Category,
		&m.ApprovalStatus,
		&m.RequestedBy,
		&m.ApprovedBy,
		&m.ApprovedAt,
		&m.RejectionReason,
		&m.FundingAccountID,
		&m.FundingEntryID,
		&m.Reversed,
		&m.ReversedAt,
		&m.ReversedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return domain.PettyCashEntry{
		EntryID:          m.EntryID,
		StationID:        m.StationID,
		Kind:             domain.PettyCashKind(m.Kind),
		Amount:           m.Amount,
		Description:      m.Description,
		Category:         m.Category,
		ApprovalStatus:   domain.ApprovalStatus(m.ApprovalStatus),
		RequestedBy:      m.RequestedBy,
		ApprovedBy:       m.ApprovedBy,
		ApprovedAt:       m.ApprovedAt,
		RejectionReason:  m.RejectionReason,
		FundingAccountID: m.FundingAccountID,
		FundingEntryID:   m.FundingEntryID,
		Reversed:         m.Reversed,
		ReversedAt:       m.ReversedAt,
		ReversedBy:       m.ReversedBy,
		AuditFields:      domain.AuditFields(m.AuditFields),
	}, err
}

func (r *PgxPettyCashRepository) FindPettyCashAccount(ctx context.Context, stationID string) (*domain.PettyCashAccount, error) {
	query := `SELECT ` + pettyCashAccountColumns + ` FROM petty_cash_accounts WHERE station_id = $1;`
	return scanPettyCashAccount(r.db.QueryRow(ctx, query, stationID))
}

func (r *PgxPettyCashRepository) FindPettyCashAccountForUpdate(ctx context.Context, stationID string) (*domain.PettyCashAccount, error) {
	query := `SELECT ` + pettyCashAccountColumns + ` FROM petty_cash_accounts WHERE station_id = $1 FOR UPDATE;`
	return scanPettyCashAccount(r.db.QueryRow(ctx, query, stationID))
}

func (r *PgxPettyCashRepository) SavePettyCashAccount(ctx context.Context, account domain.PettyCashAccount) error {
	query := `
		INSERT INTO petty_cash_accounts (` + pettyCashAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		account.StationID, account.CurrentBalance, account.MinLimit, account.MaxLimit,
		account.LastReplenishmentAmount, account.LastReplenishmentDate, account.Version,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save petty cash account for station %s: %w", account.StationID, mapError(err))
	}
	return nil
}

// UpdatePettyCashAccount is a compare-and-set on version.
func (r *PgxPettyCashRepository) UpdatePettyCashAccount(ctx context.Context, account domain.PettyCashAccount, expectedVersion int64) error {
	query := `
		UPDATE petty_cash_accounts
		SET current_balance = $2, min_limit = $3, max_limit = $4,
		    last_replenishment_amount = $5, last_replenishment_date = $6,
		    version = version + 1, last_updated_at = $8, last_updated_by = $9
		WHERE station_id = $1 AND version = $7;
	`
	tag, err := r.db.Exec(ctx, query,
		account.StationID, account.CurrentBalance, account.MinLimit, account.MaxLimit,
		account.LastReplenishmentAmount, account.LastReplenishmentDate, expectedVersion,
		account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update petty cash account for station %s: %w", account.StationID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: petty cash account for station %s changed or no longer exists", apperrors.ErrConflict, account.StationID)
	}
	return nil
}

func (r *PgxPettyCashRepository) FindPettyCashEntry(ctx context.Context, entryID string) (*domain.PettyCashEntry, error) {
	query := `SELECT ` + pettyCashEntryColumns + ` FROM petty_cash_entries WHERE entry_id = $1;`
	return r.findEntry(ctx, query, entryID)
}

func (r *PgxPettyCashRepository) FindPettyCashEntryForUpdate(ctx context.Context, entryID string) (*domain.PettyCashEntry, error) {
	query := `SELECT ` + pettyCashEntryColumns + ` FROM petty_cash_entries WHERE entry_id = $1 FOR UPDATE;`
	return r.findEntry(ctx, query, entryID)
}

func (r *PgxPettyCashRepository) findEntry(ctx context.Context, query, entryID string) (*domain.PettyCashEntry, error) {
	entry, err := scanPettyCashEntry(r.db.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find petty cash entry %s: %w", entryID, mapError(err))
	}
	return &entry, nil
}

func (r *PgxPettyCashRepository) SavePettyCashEntry(ctx context.Context, entry domain.PettyCashEntry) error {
	query := `
		INSERT INTO petty_cash_entries (` + pettyCashEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := r.db.Exec(ctx, query,
		entry.EntryID, entry.StationID, string(entry.Kind), entry.Amount, entry.Description, entry.Category,
		string(entry.ApprovalStatus), entry.RequestedBy, entry.ApprovedBy, entry.ApprovedAt, entry.RejectionReason,
		entry.FundingAccountID, entry.FundingEntryID, entry.Reversed, entry.ReversedAt, entry.ReversedBy,
		entry.CreatedAt, entry.CreatedBy, entry.LastUpdatedAt, entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save petty cash entry %s: %w", entry.EntryID, mapError(err))
	}
	return nil
}

// UpdatePettyCashEntry writes the approval, funding and reversal fields.
func (r *PgxPettyCashRepository) UpdatePettyCashEntry(ctx context.Context, entry domain.PettyCashEntry) error {
	query := `
		UPDATE petty_cash_entries
		SET approval_status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5,
		    funding_entry_id = $6, reversed = $7, reversed_at = $8, reversed_by = $9,
		    last_updated_at = $10, last_updated_by = $11
		WHERE entry_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		entry.EntryID, string(entry.ApprovalStatus), entry.ApprovedBy, entry.ApprovedAt, entry.RejectionReason,
		entry.FundingEntryID, entry.Reversed, entry.ReversedAt, entry.ReversedBy,
		entry.LastUpdatedAt, entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update petty cash entry %s: %w", entry.EntryID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxPettyCashRepository) DeletePettyCashEntry(ctx context.Context, entryID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM petty_cash_entries WHERE entry_id = $1;`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete petty cash entry %s: %w", entryID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListPettyCashEntries returns the newest entries first.
func (r *PgxPettyCashRepository) ListPettyCashEntries(ctx context.Context, filter domain.PettyCashFilter) ([]domain.PettyCashEntry, error) {
	query := `
		SELECT ` + pettyCashEntryColumns + `
		FROM petty_cash_entries
		WHERE ($1 = '' OR station_id = $1)
		  AND ($2 = '' OR kind = $2)
		  AND ($3 = '' OR approval_status = $3)
		ORDER BY created_at DESC, entry_id
		LIMIT $4 OFFSET $5;
	`
	rows, err := r.db.Query(ctx, query,
		filter.StationID, string(filter.Kind), string(filter.Status), limitArg(filter.Limit), filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list petty cash entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PettyCashEntry, error) {
		return scanPettyCashEntry(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan petty cash entries: %w", err)
	}
	return entries, nil
}
