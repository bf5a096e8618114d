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

const loanColumns = `loan_id, employee_id, station_id, amount, interest_rate, duration_months,
	installment_amount, total_repayable, remaining_amount, start_date, end_date, status, purpose,
	approved_by, approved_at, disbursement_account_id, disbursement_entry_id,
	rejection_reason, cancellation_reason, version,
	created_at, created_by, last_updated_at, last_updated_by`

const installmentColumns = `loan_id, number, due_date, amount, status, paid_at, payment_entry_id`

type PgxLoanRepository struct {
	db DBTX
}

func newPgxLoanRepository(db DBTX) *PgxLoanRepository {
	return &PgxLoanRepository{db: db}
}

var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

func scanLoan(row pgx.Row) (domain.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID,
		&m.EmployeeID,
		&m.StationID,
		&m.Amount,
		&m.InterestRate,
		&m.DurationMonths,
		&m.InstallmentAmount,
		&m.TotalRepayable,
		&m.RemainingAmount,
		&m.StartDate,
		&m.EndDate,
		&m.Status,
		&m.Purpose,
		&m.ApprovedBy,
		&m.ApprovedAt,
		&m.DisbursementAccountID,
		&m.DisbursementEntryID,
		&m.RejectionReason,
		&m.CancellationReason,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return domain.Loan{
		LoanID:                m.LoanID,
		EmployeeID:            m.EmployeeID,
		StationID:             m.StationID,
		Amount:                m.Amount,
		InterestRate:          m.InterestRate,
		DurationMonths:        m.DurationMonths,
		InstallmentAmount:     m.InstallmentAmount,
		TotalRepayable:        m.TotalRepayable,
		RemainingAmount:       m.RemainingAmount,
		StartDate:             m.StartDate,
		EndDate:               m.EndDate,
		Status:                domain.LoanStatus(m.Status),
		Purpose:               m.Purpose,
		ApprovedBy:            m.ApprovedBy,
		ApprovedAt:            m.ApprovedAt,
		DisbursementAccountID: m.DisbursementAccountID,
		DisbursementEntryID:   m.DisbursementEntryID,
		RejectionReason:       m.RejectionReason,
		CancellationReason:    m.CancellationReason,
		Version:               m.Version,
		AuditFields:           domain.AuditFields(m.AuditFields),
	}, err
}

func toModelInstallment(loanID string, d domain.Installment) models.LoanInstallment {
	return models.LoanInstallment{
		LoanID:         loanID,
		Number:         d.Number,
		DueDate:        d.DueDate,
		Amount:         d.Amount,
		Status:         string(d.Status),
		PaidAt:         d.PaidAt,
		PaymentEntryID: d.PaymentEntryID,
	}
}

// loadInstallments returns the installments of each loan ordered by number.
func (r *PgxLoanRepository) loadInstallments(ctx context.Context, loanIDs []string) (map[string][]domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE loan_id = ANY($1) ORDER BY loan_id, number;`
	rows, err := r.db.Query(ctx, query, loanIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan installments: %w", err)
	}
	defer rows.Close()

	byLoan := make(map[string][]domain.Installment, len(loanIDs))
	for rows.Next() {
		var m models.LoanInstallment
		if err := rows.Scan(&m.LoanID, &m.Number, &m.DueDate, &m.Amount, &m.Status, &m.PaidAt, &m.PaymentEntryID); err != nil {
			return nil, fmt.Errorf("failed to scan loan installment: %w", err)
		}
		byLoan[m.LoanID] = append(byLoan[m.LoanID], domain.Installment{
			Number:         m.Number,
			DueDate:        m.DueDate,
			Amount:         m.Amount,
			Status:         domain.InstallmentStatus(m.Status),
			PaidAt:         m.PaidAt,
			PaymentEntryID: m.PaymentEntryID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load loan installments: %w", err)
	}
	return byLoan, nil
}

func (r *PgxLoanRepository) findLoan(ctx context.Context, query, loanID string) (*domain.Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, mapError(err))
	}
	installments, err := r.loadInstallments(ctx, []string{loanID})
	if err != nil {
		return nil, err
	}
	loan.Installments = installments[loanID]
	return &loan, nil
}

func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	return r.findLoan(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_id = $1;`, loanID)
}

// FindLoanByIDForUpdate locks the loan row. Installment rows are only written
// by holders of that lock.
func (r *PgxLoanRepository) FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	return r.findLoan(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_id = $1 FOR UPDATE;`, loanID)
}

// ListLoans returns the newest applications first.
func (r *PgxLoanRepository) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE ($1 = '' OR employee_id = $1)
		  AND ($2 = '' OR station_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, loan_id
		LIMIT $4 OFFSET $5;
	`
	rows, err := r.db.Query(ctx, query,
		filter.EmployeeID, filter.StationID, string(filter.Status), limitArg(filter.Limit), filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	loans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Loan, error) {
		return scanLoan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan loans: %w", err)
	}
	if len(loans) == 0 {
		return loans, nil
	}

	ids := make([]string, len(loans))
	for i, l := range loans {
		ids[i] = l.LoanID
	}
	installments, err := r.loadInstallments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		loans[i].Installments = installments[loans[i].LoanID]
	}
	return loans, nil
}

func (r *PgxLoanRepository) ListDueInstallments(ctx context.Context, employeeID string, asOf time.Time) ([]domain.DueInstallment, error) {
	query := `
		SELECT li.loan_id, l.employee_id, li.number, li.due_date, li.amount, li.status
		FROM loan_installments li
		JOIN loans l ON l.loan_id = li.loan_id
		WHERE l.status = 'active'
		  AND l.employee_id = $1
		  AND li.status <> 'paid'
		  AND li.due_date <= $2
		ORDER BY li.due_date, li.loan_id, li.number;
	`
	rows, err := r.db.Query(ctx, query, employeeID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due installments of employee %s: %w", employeeID, err)
	}
	due, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DueInstallment, error) {
		var d domain.DueInstallment
		var status string
		err := row.Scan(&d.LoanID, &d.EmployeeID, &d.InstallmentNumber, &d.DueDate, &d.Amount, &status)
		d.Status = domain.InstallmentStatus(status)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan due installments: %w", err)
	}
	return due, nil
}

// SaveLoan inserts the loan and its installments in one batch, which pgx runs
// as a single implicit transaction.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);`,
		loan.LoanID, loan.EmployeeID, loan.StationID, loan.Amount, loan.InterestRate, loan.DurationMonths,
		loan.InstallmentAmount, loan.TotalRepayable, loan.RemainingAmount, loan.StartDate, loan.EndDate,
		string(loan.Status), loan.Purpose, loan.ApprovedBy, loan.ApprovedAt,
		loan.DisbursementAccountID, loan.DisbursementEntryID, loan.RejectionReason, loan.CancellationReason,
		loan.Version, loan.CreatedAt, loan.CreatedBy, loan.LastUpdatedAt, loan.LastUpdatedBy,
	)
	for _, inst := range loan.Installments {
		m := toModelInstallment(loan.LoanID, inst)
		batch.Queue(`INSERT INTO loan_installments (`+installmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			m.LoanID, m.Number, m.DueDate, m.Amount, m.Status, m.PaidAt, m.PaymentEntryID)
	}

	if err := r.execBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to save loan %s: %w", loan.LoanID, err)
	}
	return nil
}

// UpdateLoan is a compare-and-set on version followed by the installment writes.
// Callers run it inside a unit of work holding the loan lock.
func (r *PgxLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan, expectedVersion int64) error {
	query := `
		UPDATE loans
		SET remaining_amount = $2, end_date = $3, status = $4, approved_by = $5, approved_at = $6,
		    disbursement_account_id = $7, disbursement_entry_id = $8,
		    rejection_reason = $9, cancellation_reason = $10,
		    version = version + 1, last_updated_at = $12, last_updated_by = $13
		WHERE loan_id = $1 AND version = $11;
	`
	tag, err := r.db.Exec(ctx, query,
		loan.LoanID, loan.RemainingAmount, loan.EndDate, string(loan.Status), loan.ApprovedBy, loan.ApprovedAt,
		loan.DisbursementAccountID, loan.DisbursementEntryID, loan.RejectionReason, loan.CancellationReason,
		expectedVersion, loan.LastUpdatedAt, loan.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan %s: %w", loan.LoanID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: loan %s changed or no longer exists", apperrors.ErrConflict, loan.LoanID)
	}
	if len(loan.Installments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, inst := range loan.Installments {
		m := toModelInstallment(loan.LoanID, inst)
		batch.Queue(`
			UPDATE loan_installments
			SET status = $3, paid_at = $4, payment_entry_id = $5
			WHERE loan_id = $1 AND number = $2;`,
			m.LoanID, m.Number, m.Status, m.PaidAt, m.PaymentEntryID)
	}
	if err := r.execBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to update installments of loan %s: %w", loan.LoanID, err)
	}
	return nil
}

// MarkOverdueInstallments locks affected loans in loan_id order, the same lock
// FindLoanByIDForUpdate takes, before flipping their installments.
func (r *PgxLoanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		WITH locked AS (
			SELECT l.loan_id
			FROM loans l
			WHERE l.status = 'active'
			  AND EXISTS (
				SELECT 1 FROM loan_installments li
				WHERE li.loan_id = l.loan_id AND li.status = 'pending' AND li.due_date < $1)
			ORDER BY l.loan_id
			FOR UPDATE
		), marked AS (
			UPDATE loan_installments
			SET status = 'overdue'
			WHERE loan_id IN (SELECT loan_id FROM locked)
			  AND status = 'pending'
			  AND due_date < $1
			RETURNING 1
		)
		SELECT COUNT(*) FROM marked;
	`
	var marked int64
	if err := r.db.QueryRow(ctx, query, asOf).Scan(&marked); err != nil {
		return 0, fmt.Errorf("failed to mark overdue installments: %w", mapError(err))
	}
	return marked, nil
}

func (r *PgxLoanRepository) execBatch(ctx context.Context, batch *pgx.Batch) error {
	br := r.db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapError(err)
		}
	}
	return mapError(br.Close())
}
