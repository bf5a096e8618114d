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
)

const entryColumns = `entry_id, sequence, account_id, related_account_id, transfer_id, COALESCE(reference, ''),
	amount, direction, entry_type, source, description, entry_date, balance_after,
	reconciled, reconciled_at, reconciled_by,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	db DBTX
}

func newPgxJournalRepository(db DBTX) *PgxJournalRepository {
	return &PgxJournalRepository{db: db}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func toModelEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:          d.EntryID,
		Sequence:         d.Sequence,
		AccountID:        d.AccountID,
		RelatedAccountID: d.RelatedAccountID,
		TransferID:       d.TransferID,
		Reference:        d.Reference,
		Amount:           d.Amount,
		Direction:        string(d.Direction),
		EntryType:        string(d.Type),
		Source:           string(d.Source),
		Description:      d.Description,
		EntryDate:        d.EntryDate,
		BalanceAfter:     d.BalanceAfter,
		Reconciled:       d.Reconciled,
		ReconciledAt:     d.ReconciledAt,
		ReconciledBy:     d.ReconciledBy,
		AuditFields:      models.AuditFields(d.AuditFields),
	}
}

func toDomainEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:          m.EntryID,
		Sequence:         m.Sequence,
		AccountID:        m.AccountID,
		RelatedAccountID: m.RelatedAccountID,
		TransferID:       m.TransferID,
		Reference:        m.Reference,
		Amount:           m.Amount,
		Direction:        domain.Direction(m.Direction),
		Type:             domain.EntryType(m.EntryType),
		Source:           domain.EntrySource(m.Source),
		Description:      m.Description,
		EntryDate:        m.EntryDate,
		BalanceAfter:     m.BalanceAfter,
		Reconciled:       m.Reconciled,
		ReconciledAt:     m.ReconciledAt,
		ReconciledBy:     m.ReconciledBy,
		AuditFields:      domain.AuditFields(m.AuditFields),
	}
}

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.Sequence,
		&m.AccountID,
		&m.RelatedAccountID,
		&m.TransferID,
		&m.Reference,
		&m.Amount,
		&m.Direction,
		&m.EntryType,
		&m.Source,
		&m.Description,
		&m.EntryDate,
		&m.BalanceAfter,
		&m.Reconciled,
		&m.ReconciledAt,
		&m.ReconciledBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectEntries(rows pgx.Rows) ([]domain.JournalEntry, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.JournalEntry, error) {
		m, err := scanEntry(row)
		return toDomainEntry(m), err
	})
}

// SaveEntry inserts an entry and assigns its Sequence from the table's identity column.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry *domain.JournalEntry) error {
	m := toModelEntry(*entry)
	query := `
		INSERT INTO journal_entries (
			entry_id, account_id, related_account_id, transfer_id, reference,
			amount, direction, entry_type, source, description, entry_date, balance_after,
			reconciled, reconciled_at, reconciled_by,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING sequence;
	`
	err := r.db.QueryRow(ctx, query,
		m.EntryID, m.AccountID, m.RelatedAccountID, m.TransferID, m.Reference,
		m.Amount, m.Direction, m.EntryType, m.Source, m.Description, m.EntryDate, m.BalanceAfter,
		m.Reconciled, m.ReconciledAt, m.ReconciledBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&entry.Sequence)
	if err != nil {
		return fmt.Errorf("failed to save journal entry %s: %w", m.EntryID, mapError(err))
	}
	return nil
}

func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`
	return r.findOne(ctx, query, entryID)
}

func (r *PgxJournalRepository) FindEntryByReference(ctx context.Context, reference string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE reference = $1;`
	return r.findOne(ctx, query, reference)
}

func (r *PgxJournalRepository) findOne(ctx context.Context, query string, arg string) (*domain.JournalEntry, error) {
	m, err := scanEntry(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", arg, err)
	}
	entry := toDomainEntry(m)
	return &entry, nil
}

func (r *PgxJournalRepository) FindEntriesByIDs(ctx context.Context, entryIDs []string) (map[string]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = ANY($1);`
	rows, err := r.db.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entries: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal entries: %w", err)
	}

	byID := make(map[string]domain.JournalEntry, len(entries))
	for _, e := range entries {
		byID[e.EntryID] = e
	}
	return byID, nil
}

// ListEntries returns entries in posting order.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE ($1 = '' OR account_id = $1)
		  AND ($2 = '' OR transfer_id = $2)
		  AND ($3::boolean IS NULL OR reconciled = $3)
		  AND ($4::timestamptz IS NULL OR entry_date >= $4)
		  AND ($5::timestamptz IS NULL OR entry_date <= $5)
		ORDER BY sequence
		LIMIT $6 OFFSET $7;
	`
	rows, err := r.db.Query(ctx, query,
		filter.AccountID, filter.TransferID, filter.Reconciled, filter.From, filter.To,
		limitArg(filter.Limit), filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal entries: %w", err)
	}
	return entries, nil
}

func (r *PgxJournalRepository) SumEntries(ctx context.Context, accountID string, reconciledOnly bool) (domain.EntryTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0),
		       COUNT(*)
		FROM journal_entries
		WHERE account_id = $1 AND (NOT $2 OR reconciled);
	`
	var totals domain.EntryTotals
	var count int64
	if err := r.db.QueryRow(ctx, query, accountID, reconciledOnly).Scan(&totals.Credits, &totals.Debits, &count); err != nil {
		return domain.EntryTotals{}, fmt.Errorf("failed to sum journal entries of account %s: %w", accountID, err)
	}
	totals.Count = int(count)
	return totals, nil
}

func (r *PgxJournalRepository) LatestEntry(ctx context.Context, accountID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE account_id = $1 ORDER BY sequence DESC LIMIT 1;`
	return r.findOne(ctx, query, accountID)
}

func (r *PgxJournalRepository) CountEntriesReferencing(ctx context.Context, accountID string) (int, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE account_id = $1 OR related_account_id = $1;`,
		accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal entries of account %s: %w", accountID, err)
	}
	return int(count), nil
}

// MarkEntriesReconciled flags all entries or none.
func (r *PgxJournalRepository) MarkEntriesReconciled(ctx context.Context, entryIDs []string, userID string, at time.Time) error {
	query := `
		UPDATE journal_entries
		SET reconciled = TRUE, reconciled_at = $2, reconciled_by = $3, last_updated_at = $2, last_updated_by = $3
		WHERE entry_id = ANY($1);
	`
	tag, err := r.db.Exec(ctx, query, entryIDs, at, userID)
	if err != nil {
		return fmt.Errorf("failed to mark journal entries reconciled: %w", mapError(err))
	}
	if int(tag.RowsAffected()) != len(entryIDs) {
		return fmt.Errorf("%w: %d of %d journal entries exist", apperrors.ErrNotFound, tag.RowsAffected(), len(entryIDs))
	}
	return nil
}
