package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	sweepOverdueLockKey    = "loan:sweep-overdue"
	defaultSweepOverdueTTL = 5 * time.Minute
)

// loanService manages employee loans on a flat-interest schedule.
type loanService struct {
	BaseService
	loanRepo portsrepo.LoanRepositoryFacade
	locker   portssvc.Locker
	lockTTL  time.Duration
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// NewLoanService creates a new loan service. locker serialises overdue sweeps
// across processes; a nil locker falls back to an in-process lock.
func NewLoanService(repos portsrepo.RepositoryProvider, locker portssvc.Locker, lockTTL time.Duration, opts ...ServiceOption) portssvc.LoanSvcFacade {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if lockTTL <= 0 {
		lockTTL = defaultSweepOverdueTTL
	}
	return &loanService{
		BaseService: newBaseService(repos.TxManager, opts),
		loanRepo:    repos.LoanRepo,
		locker:      locker,
		lockTTL:     lockTTL,
	}
}

func (s *loanService) PreviewSchedule(ctx context.Context, req dto.LoanScheduleRequest) (*domain.LoanSchedule, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	schedule, err := accounting.FlatSchedule(req.Amount, req.DurationMonths, req.InterestRate, s.startDate(req.StartDate))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return &schedule, nil
}

func (s *loanService) ApplyForLoan(ctx context.Context, req dto.LoanApplicationRequest, userID string) (*domain.Loan, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	start := s.startDate(req.StartDate)
	schedule, err := accounting.FlatSchedule(req.Amount, req.DurationMonths, req.InterestRate, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	loan := domain.Loan{
		LoanID:            uuid.NewString(),
		EmployeeID:        req.EmployeeID,
		StationID:         req.StationID,
		Amount:            req.Amount,
		InterestRate:      req.InterestRate,
		DurationMonths:    req.DurationMonths,
		InstallmentAmount: schedule.InstallmentAmount,
		TotalRepayable:    schedule.TotalRepayable,
		RemainingAmount:   schedule.TotalRepayable,
		StartDate:         start,
		Status:            domain.LoanPending,
		Purpose:           req.Purpose,
		Installments:      schedule.Installments,
		Version:           1,
		AuditFields:       domain.NewAuditFields(userID, s.Now()),
	}
	if err := s.loanRepo.SaveLoan(ctx, loan); err != nil {
		s.LogError(ctx, err, "Failed to save loan application", slog.String("employee_id", req.EmployeeID))
		return nil, fmt.Errorf("failed to apply for loan: %w", err)
	}

	s.LogInfo(ctx, "Loan application recorded",
		slog.String("loan_id", loan.LoanID),
		slog.String("employee_id", loan.EmployeeID),
		slog.String("amount", loan.Amount.String()),
		slog.Int("duration_months", loan.DurationMonths))
	return &loan, nil
}

// ApproveLoan activates a pending loan. With a disbursement account the
// principal is debited from it in the same unit of work.
func (s *loanService) ApproveLoan(ctx context.Context, loanID string, req dto.ApproveLoanRequest, actor domain.Actor) (_ *domain.Loan, err error) {
	ctx, span := startSpan(ctx, "LoanService.ApproveLoan", attribute.String("loan.id", loanID))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !actor.Role.CanApproveLoans() {
		return nil, fmt.Errorf("%w: role %s cannot approve loans", apperrors.ErrForbidden, actor.Role)
	}

	loan, err := s.transition(ctx, loanID, func(ctx context.Context, store portsrepo.Store, loan *domain.Loan, now time.Time) error {
		if loan.Status != domain.LoanPending {
			return fmt.Errorf("%w: loan %s is %s", apperrors.ErrInvalidState, loanID, loan.Status)
		}
		loan.Status = domain.LoanActive
		loan.ApprovedBy = actor.UserID
		loan.ApprovedAt = &now

		if req.DisbursementAccountID == "" {
			return nil
		}
		accounts, err := lockAccounts(ctx, store, req.DisbursementAccountID)
		if err != nil {
			return err
		}
		entry, err := postToAccount(ctx, store, accounts[req.DisbursementAccountID], posting{
			Direction:   domain.Debit,
			Amount:      loan.Amount,
			Type:        domain.EntryWithdrawal,
			Source:      domain.SourceLoan,
			Description: fmt.Sprintf("Loan disbursement to employee %s", loan.EmployeeID),
			Reference:   "loan-disbursement:" + loan.LoanID,
		}, actor.UserID, now)
		if err != nil {
			return err
		}
		loan.DisbursementAccountID = req.DisbursementAccountID
		loan.DisbursementEntryID = entry.EntryID
		return nil
	}, actor.UserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to approve loan", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to approve loan %s: %w", loanID, err)
	}

	s.LogInfo(ctx, "Loan approved", slog.String("loan_id", loanID), slog.String("approved_by", actor.UserID))
	return loan, nil
}

func (s *loanService) RejectLoan(ctx context.Context, loanID string, req dto.LoanDecisionRequest, actor domain.Actor) (*domain.Loan, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !actor.Role.CanApproveLoans() {
		return nil, fmt.Errorf("%w: role %s cannot reject loans", apperrors.ErrForbidden, actor.Role)
	}

	loan, err := s.transition(ctx, loanID, func(_ context.Context, _ portsrepo.Store, loan *domain.Loan, _ time.Time) error {
		if loan.Status != domain.LoanPending {
			return fmt.Errorf("%w: loan %s is %s", apperrors.ErrInvalidState, loanID, loan.Status)
		}
		loan.Status = domain.LoanRejected
		loan.RejectionReason = req.Reason
		return nil
	}, actor.UserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to reject loan", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to reject loan %s: %w", loanID, err)
	}

	s.LogInfo(ctx, "Loan rejected", slog.String("loan_id", loanID))
	return loan, nil
}

func (s *loanService) CancelLoan(ctx context.Context, loanID string, req dto.LoanDecisionRequest, actor domain.Actor) (*domain.Loan, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	loan, err := s.transition(ctx, loanID, func(_ context.Context, _ portsrepo.Store, loan *domain.Loan, now time.Time) error {
		if loan.Status != domain.LoanPending && loan.Status != domain.LoanActive {
			return fmt.Errorf("%w: loan %s is %s", apperrors.ErrInvalidState, loanID, loan.Status)
		}
		if loan.Status == domain.LoanActive && !actor.Role.CanApproveLoans() {
			return fmt.Errorf("%w: role %s cannot cancel an active loan", apperrors.ErrForbidden, actor.Role)
		}
		if loan.EmployeeID != actor.UserID && !actor.Role.CanApproveLoans() {
			return fmt.Errorf("%w: only the applicant or an approver may cancel loan %s", apperrors.ErrForbidden, loanID)
		}
		loan.Status = domain.LoanCancelled
		loan.CancellationReason = req.Reason
		loan.EndDate = &now
		return nil
	}, actor.UserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel loan", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to cancel loan %s: %w", loanID, err)
	}

	s.LogInfo(ctx, "Loan cancelled", slog.String("loan_id", loanID), slog.String("cancelled_by", actor.UserID))
	return loan, nil
}

// RecordPayment marks one installment paid. The loan completes once nothing
// remains outstanding.
func (s *loanService) RecordPayment(ctx context.Context, loanID string, req dto.LoanPaymentRequest, userID string) (_ *domain.Loan, err error) {
	ctx, span := startSpan(ctx, "LoanService.RecordPayment",
		attribute.String("loan.id", loanID),
		attribute.Int("installment", req.InstallmentNumber))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	loan, err := s.transition(ctx, loanID, func(ctx context.Context, store portsrepo.Store, loan *domain.Loan, now time.Time) error {
		if loan.Status != domain.LoanActive {
			return fmt.Errorf("%w: loan %s is %s", apperrors.ErrInvalidState, loanID, loan.Status)
		}
		inst := loan.Installment(req.InstallmentNumber)
		if inst == nil {
			return fmt.Errorf("installment %d of loan %s: %w", req.InstallmentNumber, loanID, apperrors.ErrNotFound)
		}
		if inst.Status == domain.InstallmentPaid {
			return fmt.Errorf("%w: installment %d of loan %s", apperrors.ErrAlreadyPaid, req.InstallmentNumber, loanID)
		}

		if req.DepositAccountID != "" {
			accounts, err := lockAccounts(ctx, store, req.DepositAccountID)
			if err != nil {
				return err
			}
			entry, err := postToAccount(ctx, store, accounts[req.DepositAccountID], posting{
				Direction:   domain.Credit,
				Amount:      inst.Amount,
				Type:        domain.EntryDeposit,
				Source:      domain.SourceLoan,
				Description: fmt.Sprintf("Loan repayment %d/%d from employee %s", inst.Number, loan.DurationMonths, loan.EmployeeID),
				Reference:   fmt.Sprintf("loan-repayment:%s:%d", loan.LoanID, inst.Number),
			}, userID, now)
			if err != nil {
				return err
			}
			inst.PaymentEntryID = entry.EntryID
		}

		inst.Status = domain.InstallmentPaid
		inst.PaidAt = &now
		loan.RemainingAmount = loan.RemainingAmount.Sub(inst.Amount)
		if !loan.RemainingAmount.IsPositive() {
			loan.RemainingAmount = decimal.Zero
			loan.Status = domain.LoanCompleted
			loan.EndDate = &now
		}
		return nil
	}, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyPaid) {
			s.LogWarn(ctx, "Installment already paid", slog.String("loan_id", loanID), slog.Int("installment", req.InstallmentNumber))
		} else {
			s.LogError(ctx, err, "Failed to record loan payment", slog.String("loan_id", loanID))
		}
		return nil, fmt.Errorf("failed to record payment for loan %s: %w", loanID, err)
	}

	s.LogInfo(ctx, "Loan payment recorded",
		slog.String("loan_id", loanID),
		slog.Int("installment", req.InstallmentNumber),
		slog.String("remaining_amount", loan.RemainingAmount.String()),
		slog.String("status", string(loan.Status)))
	return loan, nil
}

// SweepOverdue flips pending installments of active loans due before asOf to
// overdue. Only one sweep runs at a time across all processes sharing the locker.
func (s *loanService) SweepOverdue(ctx context.Context, asOf time.Time) (_ int64, err error) {
	ctx, span := startSpan(ctx, "LoanService.SweepOverdue", attribute.String("as_of", asOf.Format(time.RFC3339)))
	defer func() { endSpan(span, err) }()

	release, err := s.locker.Acquire(ctx, sweepOverdueLockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			s.LogInfo(ctx, "Overdue sweep already running elsewhere, skipping")
			return 0, fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		}
		s.LogError(ctx, err, "Failed to acquire overdue sweep lock")
		return 0, fmt.Errorf("failed to acquire overdue sweep lock: %w", err)
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.LogError(ctx, relErr, "Failed to release overdue sweep lock")
		}
	}()

	var marked int64
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		n, err := store.Loans().MarkOverdueInstallments(ctx, asOf.UTC())
		marked = n
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to sweep overdue installments")
		return 0, fmt.Errorf("failed to sweep overdue installments: %w", err)
	}

	s.LogInfo(ctx, "Overdue sweep finished", slog.Int64("marked", marked), slog.Time("as_of", asOf))
	return marked, nil
}

func (s *loanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
		}
		s.LogError(ctx, err, "Failed to get loan", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to get loan %s: %w", loanID, err)
	}
	return loan, nil
}

func (s *loanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.Loan, error) {
	loans, err := s.loanRepo.ListLoans(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list loans", slog.String("employee_id", filter.EmployeeID))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	if loans == nil {
		loans = []domain.Loan{}
	}
	return loans, nil
}

func (s *loanService) DueInstallments(ctx context.Context, employeeID string, asOf time.Time) ([]domain.DueInstallment, error) {
	if asOf.IsZero() {
		asOf = s.Now()
	}
	due, err := s.loanRepo.ListDueInstallments(ctx, employeeID, asOf.UTC())
	if err != nil {
		s.LogError(ctx, err, "Failed to list due installments", slog.String("employee_id", employeeID))
		return nil, fmt.Errorf("failed to list due installments for employee %s: %w", employeeID, err)
	}
	if due == nil {
		due = []domain.DueInstallment{}
	}
	return due, nil
}

type loanMutation func(ctx context.Context, store portsrepo.Store, loan *domain.Loan, now time.Time) error

// transition locks a loan, applies mutate and writes it back with a version check.
func (s *loanService) transition(ctx context.Context, loanID string, mutate loanMutation, userID string) (*domain.Loan, error) {
	var result domain.Loan
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		loan, err := store.Loans().FindLoanByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
			}
			return err
		}
		if loan.Status.Terminal() {
			return fmt.Errorf("%w: loan %s is %s", apperrors.ErrInvalidState, loanID, loan.Status)
		}

		now := s.Now()
		version := loan.Version
		if err := mutate(ctx, store, loan, now); err != nil {
			return err
		}
		loan.Touch(userID, now)
		if err := store.Loans().UpdateLoan(ctx, *loan, version); err != nil {
			return err
		}
		loan.Version = version + 1
		result = *loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *loanService) startDate(requested *time.Time) time.Time {
	if requested != nil && !requested.IsZero() {
		return requested.UTC()
	}
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
