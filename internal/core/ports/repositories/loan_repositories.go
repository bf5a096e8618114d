package repositories

import (
	"context"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
)

// LoanReader defines read operations for loans
type LoanReader interface {
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.Loan, error)
	// ListDueInstallments returns unpaid installments of active loans due on or before asOf.
	ListDueInstallments(ctx context.Context, employeeID string, asOf time.Time) ([]domain.DueInstallment, error)
}

// LoanWriter defines write operations for loans
type LoanWriter interface {
	// FindLoanByIDForUpdate holds the loan's lock until the unit of work ends.
	FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error)
	// SaveLoan inserts a loan with its installments.
	SaveLoan(ctx context.Context, loan domain.Loan) error
	// UpdateLoan writes the loan and its installments if the stored version equals expectedVersion.
	UpdateLoan(ctx context.Context, loan domain.Loan, expectedVersion int64) error
	// MarkOverdueInstallments flips pending installments of active loans due before asOf
	// to overdue and returns how many changed.
	MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)
}

// LoanRepositoryFacade combines all loan-related repository interfaces
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
}
