package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const employee = "emp-0042"

type LoanServiceTestSuite struct {
	suite.Suite
	repos    portsrepo.RepositoryProvider
	accounts portssvc.AccountSvcFacade
	locker   *lock.KeyedMutex
	service  portssvc.LoanSvcFacade
	bank     *domain.Account
}

func (suite *LoanServiceTestSuite) SetupTest() {
	suite.repos = newMemoryRepos()
	suite.accounts = services.NewAccountService(suite.repos, clock())
	suite.locker = lock.NewKeyedMutex()
	suite.service = services.NewLoanService(suite.repos, suite.locker, time.Minute, clock())
	suite.bank = createAccount(suite.T(), suite.accounts, "50000")
}

func TestLoanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}

func loanTerms() dto.LoanScheduleRequest {
	return dto.LoanScheduleRequest{Amount: dec("12000"), InterestRate: dec("20"), DurationMonths: 12}
}

func (suite *LoanServiceTestSuite) apply() *domain.Loan {
	loan, err := suite.service.ApplyForLoan(context.Background(), dto.LoanApplicationRequest{
		LoanScheduleRequest: loanTerms(),
		EmployeeID:          employee,
		StationID:           station,
		Purpose:             "Medical expenses",
	}, employee)
	suite.Require().NoError(err)
	return loan
}

func (suite *LoanServiceTestSuite) approve(loanID string) *domain.Loan {
	loan, err := suite.service.ApproveLoan(context.Background(), loanID, dto.ApproveLoanRequest{}, manager)
	suite.Require().NoError(err)
	return loan
}

func (suite *LoanServiceTestSuite) pay(loanID string, n int) (*domain.Loan, error) {
	return suite.service.RecordPayment(context.Background(), loanID, dto.LoanPaymentRequest{InstallmentNumber: n}, cashier.UserID)
}

func (suite *LoanServiceTestSuite) TestPreviewSchedule() {
	schedule, err := suite.service.PreviewSchedule(context.Background(), loanTerms())

	suite.Require().NoError(err)
	suite.True(schedule.TotalRepayable.Equal(dec("14400")))
	suite.True(schedule.InstallmentAmount.Equal(dec("1200")))
	suite.Require().Len(schedule.Installments, 12)
	suite.Equal(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), schedule.Installments[0].DueDate)
	suite.Equal(time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), schedule.Installments[11].DueDate)
}

func (suite *LoanServiceTestSuite) TestPreviewSchedule_Invalid() {
	ctx := context.Background()

	_, err := suite.service.PreviewSchedule(ctx, dto.LoanScheduleRequest{Amount: dec("0"), DurationMonths: 12})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.PreviewSchedule(ctx, dto.LoanScheduleRequest{Amount: dec("1000")})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.PreviewSchedule(ctx, dto.LoanScheduleRequest{Amount: dec("1000"), InterestRate: dec("-1"), DurationMonths: 3})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.PreviewSchedule(ctx, dto.LoanScheduleRequest{Amount: dec("1000.00001"), DurationMonths: 3})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.PreviewSchedule(ctx, dto.LoanScheduleRequest{Amount: dec("1000"), InterestRate: dec("2.00001"), DurationMonths: 3})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.PreviewSchedule(ctx, dto.LoanScheduleRequest{Amount: dec("1.18"), DurationMonths: 120})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LoanServiceTestSuite) TestApplyForLoan() {
	loan := suite.apply()

	suite.Equal(domain.LoanPending, loan.Status)
	suite.True(loan.RemainingAmount.Equal(dec("14400")))
	suite.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), loan.StartDate)
	suite.Len(loan.Installments, 12)

	stored, err := suite.service.GetLoan(context.Background(), loan.LoanID)
	suite.Require().NoError(err)
	suite.Equal(loan.LoanID, stored.LoanID)

	loans, err := suite.service.ListLoans(context.Background(), domain.LoanFilter{EmployeeID: employee})
	suite.Require().NoError(err)
	suite.Len(loans, 1)
}

func (suite *LoanServiceTestSuite) TestApproveLoan_RequiresApproverRole() {
	loan := suite.apply()

	_, err := suite.service.ApproveLoan(context.Background(), loan.LoanID, dto.ApproveLoanRequest{}, cashier)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	stored, err := suite.service.GetLoan(context.Background(), loan.LoanID)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanPending, stored.Status)
}

func (suite *LoanServiceTestSuite) TestApproveLoan_DisbursesFromBank() {
	loan := suite.apply()

	approved, err := suite.service.ApproveLoan(context.Background(), loan.LoanID, dto.ApproveLoanRequest{
		DisbursementAccountID: suite.bank.AccountID,
	}, manager)

	suite.Require().NoError(err)
	suite.Equal(domain.LoanActive, approved.Status)
	suite.Equal(manager.UserID, approved.ApprovedBy)
	suite.NotEmpty(approved.DisbursementEntryID)
	suite.True(balanceOf(suite.T(), suite.accounts, suite.bank.AccountID).Equal(dec("38000")))

	_, err = suite.service.ApproveLoan(context.Background(), loan.LoanID, dto.ApproveLoanRequest{}, manager)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *LoanServiceTestSuite) TestApproveLoan_DisbursementShortfallKeepsLoanPending() {
	loan := suite.apply()
	small := createAccount(suite.T(), suite.accounts, "500")

	_, err := suite.service.ApproveLoan(context.Background(), loan.LoanID, dto.ApproveLoanRequest{
		DisbursementAccountID: small.AccountID,
	}, manager)

	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	stored, err := suite.service.GetLoan(context.Background(), loan.LoanID)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanPending, stored.Status)
	suite.True(balanceOf(suite.T(), suite.accounts, small.AccountID).Equal(dec("500")))
}

func (suite *LoanServiceTestSuite) TestRecordPayment_CompletesLoan() {
	loan := suite.apply()
	suite.approve(loan.LoanID)

	var current *domain.Loan
	for n := 1; n <= 12; n++ {
		var err error
		current, err = suite.pay(loan.LoanID, n)
		suite.Require().NoError(err)
		if n < 12 {
			suite.Equal(domain.LoanActive, current.Status)
		}
	}

	suite.Equal(domain.LoanCompleted, current.Status)
	suite.True(current.RemainingAmount.IsZero())
	suite.NotNil(current.EndDate)
	suite.True(current.Outstanding().IsZero())

	_, err := suite.pay(loan.LoanID, 1)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *LoanServiceTestSuite) TestRecordPayment_Failures() {
	loan := suite.apply()

	_, err := suite.pay(loan.LoanID, 1)
	suite.ErrorIs(err, apperrors.ErrInvalidState, "pending loan")

	suite.approve(loan.LoanID)

	_, err = suite.pay(loan.LoanID, 13)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	paid, err := suite.pay(loan.LoanID, 3)
	suite.Require().NoError(err)
	suite.True(paid.RemainingAmount.Equal(dec("13200")))

	_, err = suite.pay(loan.LoanID, 3)
	suite.ErrorIs(err, apperrors.ErrAlreadyPaid)

	_, err = suite.pay("missing", 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LoanServiceTestSuite) TestRecordPayment_DepositsToBank() {
	loan := suite.apply()
	suite.approve(loan.LoanID)

	paid, err := suite.service.RecordPayment(context.Background(), loan.LoanID, dto.LoanPaymentRequest{
		InstallmentNumber: 1,
		DepositAccountID:  suite.bank.AccountID,
	}, cashier.UserID)

	suite.Require().NoError(err)
	suite.NotEmpty(paid.Installment(1).PaymentEntryID)
	suite.True(balanceOf(suite.T(), suite.accounts, suite.bank.AccountID).Equal(dec("51200")))
}

func (suite *LoanServiceTestSuite) TestRejectAndCancel() {
	ctx := context.Background()
	reason := dto.LoanDecisionRequest{Reason: "Exceeds policy"}

	rejected := suite.apply()
	_, err := suite.service.RejectLoan(ctx, rejected.LoanID, reason, cashier)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	out, err := suite.service.RejectLoan(ctx, rejected.LoanID, reason, manager)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanRejected, out.Status)
	suite.Equal("Exceeds policy", out.RejectionReason)

	_, err = suite.service.CancelLoan(ctx, rejected.LoanID, reason, manager)
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	pending := suite.apply()
	_, err = suite.service.CancelLoan(ctx, pending.LoanID, reason, cashier)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	out, err = suite.service.CancelLoan(ctx, pending.LoanID, dto.LoanDecisionRequest{Reason: "No longer needed"}, domain.Actor{UserID: employee, Role: domain.RoleEmployee})
	suite.Require().NoError(err)
	suite.Equal(domain.LoanCancelled, out.Status)
	suite.NotNil(out.EndDate)

	active := suite.apply()
	suite.approve(active.LoanID)
	_, err = suite.service.CancelLoan(ctx, active.LoanID, reason, cashier)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	out, err = suite.service.CancelLoan(ctx, active.LoanID, reason, manager)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanCancelled, out.Status)
}

func (suite *LoanServiceTestSuite) TestSweepOverdue() {
	ctx := context.Background()
	loan := suite.apply()
	suite.approve(loan.LoanID)
	suite.apply() // pending loans are never swept

	asOf := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	marked, err := suite.service.SweepOverdue(ctx, asOf)
	suite.Require().NoError(err)
	suite.Equal(int64(3), marked)

	marked, err = suite.service.SweepOverdue(ctx, asOf)
	suite.Require().NoError(err)
	suite.Equal(int64(0), marked)

	stored, err := suite.service.GetLoan(ctx, loan.LoanID)
	suite.Require().NoError(err)
	suite.Equal(domain.InstallmentOverdue, stored.Installment(3).Status)
	suite.Equal(domain.InstallmentPending, stored.Installment(4).Status)

	// overdue installments can still be paid
	_, err = suite.pay(loan.LoanID, 2)
	suite.Require().NoError(err)
}

func (suite *LoanServiceTestSuite) TestSweepOverdue_SkipsWhenLockHeld() {
	release, err := suite.locker.Acquire(context.Background(), "loan:sweep-overdue", time.Minute)
	suite.Require().NoError(err)
	defer func() { _ = release(context.Background()) }()

	_, err = suite.service.SweepOverdue(context.Background(), fixedNow)

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.ErrorIs(err, lock.ErrLockHeld)
}

func (suite *LoanServiceTestSuite) TestDueInstallments() {
	ctx := context.Background()
	loan := suite.apply()
	suite.approve(loan.LoanID)
	_, err := suite.pay(loan.LoanID, 1)
	suite.Require().NoError(err)

	due, err := suite.service.DueInstallments(ctx, employee, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Require().Len(due, 2)
	suite.Equal(2, due[0].InstallmentNumber)
	suite.Equal(3, due[1].InstallmentNumber)
	suite.True(due[0].Amount.Equal(dec("1200")))

	none, err := suite.service.DueInstallments(ctx, "emp-unknown", time.Time{})
	suite.Require().NoError(err)
	suite.NotNil(none)
	suite.Empty(none)
}

func TestSweepOverdue_LockerFailure(t *testing.T) {
	locker := new(MockLocker)
	locker.On("Acquire", mock.Anything, "loan:sweep-overdue", 5*time.Minute).Return(nil, errors.New("redis: connection refused"))
	svc := services.NewLoanService(newMemoryRepos(), locker, 0, clock())

	_, err := svc.SweepOverdue(context.Background(), fixedNow)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrConflict)
	locker.AssertExpectations(t)
}

func TestSweepOverdue_ReleasesLock(t *testing.T) {
	released := false
	locker := new(MockLocker)
	locker.On("Acquire", mock.Anything, "loan:sweep-overdue", time.Minute).
		Return(func(context.Context) error { released = true; return nil }, nil)
	svc := services.NewLoanService(newMemoryRepos(), locker, time.Minute, clock())

	marked, err := svc.SweepOverdue(context.Background(), fixedNow)

	require.NoError(t, err)
	assert.Zero(t, marked)
	assert.True(t, released)
}
