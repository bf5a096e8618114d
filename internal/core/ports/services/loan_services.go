package services

import (
	"context"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
)

// LoanReaderSvc defines read operations for employee loans
type LoanReaderSvc interface {
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.Loan, error)
	// DueInstallments lists what payroll should deduct for an employee as of a date.
	DueInstallments(ctx context.Context, employeeID string, asOf time.Time) ([]domain.DueInstallment, error)
	PreviewSchedule(ctx context.Context, req dto.LoanScheduleRequest) (*domain.LoanSchedule, error)
}

// LoanWriterSvc defines the loan lifecycle
type LoanWriterSvc interface {
	ApplyForLoan(ctx context.Context, req dto.LoanApplicationRequest, userID string) (*domain.Loan, error)
	ApproveLoan(ctx context.Context, loanID string, req dto.ApproveLoanRequest, actor domain.Actor) (*domain.Loan, error)
	RejectLoan(ctx context.Context, loanID string, req dto.LoanDecisionRequest, actor domain.Actor) (*domain.Loan, error)
	CancelLoan(ctx context.Context, loanID string, req dto.LoanDecisionRequest, actor domain.Actor) (*domain.Loan, error)
	RecordPayment(ctx context.Context, loanID string, req dto.LoanPaymentRequest, userID string) (*domain.Loan, error)
	// SweepOverdue marks pending installments past due as overdue. Safe to run repeatedly.
	SweepOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// LoanSvcFacade combines all loan-related service interfaces
type LoanSvcFacade interface {
	LoanReaderSvc
	LoanWriterSvc
}
