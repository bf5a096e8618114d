package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, bank_name, account_number, account_name, currency_code, station_id,
	opening_balance, current_balance, is_active, last_reconciled_at, version,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	db DBTX
}

func newPgxAccountRepository(db DBTX) *PgxAccountRepository {
	return &PgxAccountRepository{db: db}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// Helper to convert domain.Account to models.Account for DB storage
func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:        d.AccountID,
		BankName:         d.BankName,
		AccountNumber:    d.AccountNumber,
		AccountName:      d.AccountName,
		CurrencyCode:     d.CurrencyCode,
		StationID:        d.StationID,
		OpeningBalance:   d.OpeningBalance,
		CurrentBalance:   d.CurrentBalance,
		IsActive:         d.IsActive,
		LastReconciledAt: d.LastReconciledAt,
		Version:          d.Version,
		AuditFields:      models.AuditFields(d.AuditFields),
	}
}

// Helper to convert models.Account from DB to domain.Account
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:        m.AccountID,
		BankName:         m.BankName,
		AccountNumber:    m.AccountNumber,
		AccountName:      m.AccountName,
		CurrencyCode:     m.CurrencyCode,
		StationID:        m.StationID,
		OpeningBalance:   m.OpeningBalance,
		CurrentBalance:   m.CurrentBalance,
		IsActive:         m.IsActive,
		LastReconciledAt: m.LastReconciledAt,
		Version:          m.Version,
		AuditFields:      domain.AuditFields(m.AuditFields),
	}
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.BankName,
		&m.AccountNumber,
		&m.AccountName,
		&m.CurrencyCode,
		&m.StationID,
		&m.OpeningBalance,
		&m.CurrentBalance,
		&m.IsActive,
		&m.LastReconciledAt,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := toModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.db.Exec(ctx, query,
		m.AccountID, m.BankName, m.AccountNumber, m.AccountName, m.CurrencyCode, m.StationID,
		m.OpeningBalance, m.CurrentBalance, m.IsActive, m.LastReconciledAt, m.Version,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, mapError(err))
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	m, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	acc := toDomainAccount(m)
	return &acc, nil
}

// ListAccounts retrieves accounts ordered by account name.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE ($1 = '' OR station_id = $1)
		  AND (NOT $2 OR is_active)
		ORDER BY account_name, account_id
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.db.Query(ctx, query, filter.StationID, filter.ActiveOnly, limitArg(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		m, err := scanAccount(row)
		return toDomainAccount(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount writes descriptive fields and the active flag. Balance and version are untouched.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET bank_name = $2, account_number = $3, account_name = $4, station_id = $5, is_active = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE account_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		account.AccountID, account.BankName, account.AccountNumber, account.AccountName,
		account.StationID, account.IsActive, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.AccountID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1;`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindAccountsByIDsForUpdate locks the rows in account_id order so concurrent
// units of work touching the same accounts never deadlock.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := r.db.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", mapError(err))
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account: %w", err)
		}
		accounts[m.AccountID] = toDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", mapError(err))
	}
	return accounts, nil
}

// UpdateAccountBalance is a compare-and-set on version.
func (r *PgxAccountRepository) UpdateAccountBalance(ctx context.Context, accountID string, newBalance decimal.Decimal, expectedVersion int64, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET current_balance = $2, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1 AND version = $3;
	`
	tag, err := r.db.Exec(ctx, query, accountID, newBalance, expectedVersion, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance of account %s: %w", accountID, mapError(err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current int64
	err = r.db.QueryRow(ctx, `SELECT version FROM accounts WHERE account_id = $1;`, accountID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to read version of account %s: %w", accountID, err)
	}
	return fmt.Errorf("%w: account %s is at version %d, expected %d", apperrors.ErrConflict, accountID, current, expectedVersion)
}

func (r *PgxAccountRepository) MarkAccountReconciled(ctx context.Context, accountID string, asOf time.Time, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET last_reconciled_at = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	tag, err := r.db.Exec(ctx, query, accountID, asOf, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark account %s reconciled: %w", accountID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
