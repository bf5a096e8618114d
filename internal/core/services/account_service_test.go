package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---

type AccountServiceTestSuite struct {
	suite.Suite
	repos   portsrepo.RepositoryProvider
	service portssvc.AccountSvcFacade
	journal portssvc.JournalSvcFacade
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.repos = newMemoryRepos()
	suite.service = services.NewAccountService(suite.repos, clock())
	suite.journal = services.NewJournalService(suite.repos, suite.service, clock())
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	req := newAccountRequest("lkr", "2500.50")

	acc, err := suite.service.CreateAccount(context.Background(), req, "creator")

	suite.Require().NoError(err)
	suite.NotEmpty(acc.AccountID)
	suite.Equal("LKR", acc.CurrencyCode)
	suite.True(acc.OpeningBalance.Equal(dec("2500.50")))
	suite.True(acc.CurrentBalance.Equal(acc.OpeningBalance))
	suite.True(acc.IsActive)
	suite.Equal("creator", acc.CreatedBy)
	suite.Equal(fixedNow, acc.CreatedAt)

	stored, err := suite.service.GetAccountByID(context.Background(), acc.AccountID)
	suite.Require().NoError(err)
	suite.Equal(acc.AccountName, stored.AccountName)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Invalid() {
	tests := []struct {
		name string
		req  dto.CreateAccountRequest
	}{
		{"unknown currency", newAccountRequest("XYZ", "10")},
		{"negative opening balance", newAccountRequest("LKR", "-1")},
		{"missing name", func() dto.CreateAccountRequest {
			r := newAccountRequest("LKR", "0")
			r.AccountName = ""
			return r
		}()},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.CreateAccount(context.Background(), tt.req, "creator")
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_NotFound() {
	_, err := suite.service.GetAccountByID(context.Background(), "missing")

	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestApplyDelta_CreditAndDebit() {
	acc := createAccount(suite.T(), suite.service, "1000")
	ctx := context.Background()

	credit, err := suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("250.25"), Direction: domain.Credit, Type: domain.EntryDeposit,
	}, "cashier")
	suite.Require().NoError(err)
	suite.True(credit.BalanceAfter.Equal(dec("1250.25")))
	suite.Equal(domain.SourceManual, credit.Source)

	debit, err := suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("1250.25"), Direction: domain.Debit, Type: domain.EntryWithdrawal,
	}, "cashier")
	suite.Require().NoError(err)
	suite.True(debit.BalanceAfter.IsZero())
	suite.Greater(debit.Sequence, credit.Sequence)

	suite.True(balanceOf(suite.T(), suite.service, acc.AccountID).IsZero())
}

func (suite *AccountServiceTestSuite) TestApplyDelta_InsufficientFundsLeavesAccountUntouched() {
	acc := createAccount(suite.T(), suite.service, "100")

	_, err := suite.service.ApplyDelta(context.Background(), dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("100.01"), Direction: domain.Debit, Type: domain.EntryWithdrawal,
	}, "cashier")

	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.True(balanceOf(suite.T(), suite.service, acc.AccountID).Equal(dec("100")))
	entries, err := suite.journal.ListEntries(context.Background(), domain.JournalFilter{AccountID: acc.AccountID})
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *AccountServiceTestSuite) TestApplyDelta_RejectsBadInput() {
	acc := createAccount(suite.T(), suite.service, "100")
	ctx := context.Background()

	_, err := suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("0"), Direction: domain.Credit, Type: domain.EntryDeposit,
	}, "cashier")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("5"), Direction: "SIDEWAYS", Type: domain.EntryDeposit,
	}, "cashier")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: "missing", Amount: dec("5"), Direction: domain.Credit, Type: domain.EntryDeposit,
	}, "cashier")
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (suite *AccountServiceTestSuite) TestApplyDelta_AmountsBeyondStoredScale() {
	acc := createAccount(suite.T(), suite.service, "10")
	ctx := context.Background()

	for _, amount := range []string{"1.00005", "0.00004"} {
		_, err := suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
			AccountID: acc.AccountID, Amount: dec(amount), Direction: domain.Debit, Type: domain.EntryWithdrawal,
		}, "cashier")
		suite.ErrorIs(err, apperrors.ErrValidation, amount)
	}
	suite.True(balanceOf(suite.T(), suite.service, acc.AccountID).Equal(dec("10")))

	_, err := suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("1.0001"), Direction: domain.Debit, Type: domain.EntryWithdrawal,
	}, "cashier")
	suite.Require().NoError(err)
	report, err := suite.journal.VerifyAccountBalance(ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.True(report.Consistent)
	suite.True(report.CurrentBalance.Equal(dec("8.9999")))

	_, err = suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("9.0001"), Direction: domain.Debit, Type: domain.EntryWithdrawal,
	}, "cashier")
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.Contains(err.Error(), "holds 8.9999, debit of 9.0001")
}

func (suite *AccountServiceTestSuite) TestApplyDelta_InactiveAccount() {
	acc := createAccount(suite.T(), suite.service, "100")
	suite.Require().NoError(suite.service.DeactivateAccount(context.Background(), acc.AccountID, "manager"))

	_, err := suite.service.ApplyDelta(context.Background(), dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("5"), Direction: domain.Credit, Type: domain.EntryDeposit,
	}, "cashier")

	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.ErrorIs(suite.service.DeactivateAccount(context.Background(), acc.AccountID, "manager"), apperrors.ErrInvalidState)
}

func (suite *AccountServiceTestSuite) TestApplyDelta_ReferenceIsIdempotent() {
	acc := createAccount(suite.T(), suite.service, "100")
	ctx := context.Background()
	req := dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("40"), Direction: domain.Credit, Type: domain.EntryDeposit,
		Source: domain.SourceSales, Reference: "sales-2026-01-15-shift-1",
	}

	first, err := suite.service.ApplyDelta(ctx, req, "cashier")
	suite.Require().NoError(err)
	second, err := suite.service.ApplyDelta(ctx, req, "cashier")
	suite.Require().NoError(err)

	suite.Equal(first.EntryID, second.EntryID)
	suite.True(balanceOf(suite.T(), suite.service, acc.AccountID).Equal(dec("140")))

	req.Amount = dec("41")
	_, err = suite.service.ApplyDelta(ctx, req, "cashier")
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestApplyDelta_CancelledContextChangesNothing() {
	acc := createAccount(suite.T(), suite.service, "100")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: acc.AccountID, Amount: dec("5"), Direction: domain.Credit, Type: domain.EntryDeposit,
	}, "cashier")

	suite.ErrorIs(err, context.Canceled)
	suite.True(balanceOf(suite.T(), suite.service, acc.AccountID).Equal(dec("100")))
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_OnlyDescriptiveFields() {
	acc := createAccount(suite.T(), suite.service, "100")
	name := "Renamed Account"

	updated, err := suite.service.UpdateAccount(context.Background(), acc.AccountID, dto.UpdateAccountRequest{AccountName: &name}, "manager")

	suite.Require().NoError(err)
	suite.Equal(name, updated.AccountName)
	suite.Equal(acc.BankName, updated.BankName)
	suite.True(updated.CurrentBalance.Equal(dec("100")))
	suite.Equal("manager", updated.LastUpdatedBy)
}

func (suite *AccountServiceTestSuite) TestDeleteAccount() {
	ctx := context.Background()
	unused := createAccount(suite.T(), suite.service, "0")
	suite.Require().NoError(suite.service.DeleteAccount(ctx, unused.AccountID, "admin"))
	_, err := suite.service.GetAccountByID(ctx, unused.AccountID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	used := createAccount(suite.T(), suite.service, "10")
	_, err = suite.service.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID: used.AccountID, Amount: dec("1"), Direction: domain.Credit, Type: domain.EntryDeposit,
	}, "cashier")
	suite.Require().NoError(err)
	suite.ErrorIs(suite.service.DeleteAccount(ctx, used.AccountID, "admin"), apperrors.ErrInvalidState)
}

func (suite *AccountServiceTestSuite) TestListAccounts_FiltersByStation() {
	ctx := context.Background()
	req := newAccountRequest("LKR", "0")
	req.StationID = "station-north"
	_, err := suite.service.CreateAccount(ctx, req, "admin")
	suite.Require().NoError(err)
	createAccount(suite.T(), suite.service, "0")

	accounts, err := suite.service.ListAccounts(ctx, domain.AccountFilter{StationID: "station-north"})

	suite.Require().NoError(err)
	suite.Len(accounts, 1)
	suite.Equal("station-north", accounts[0].StationID)
}

func TestApplyDelta_ConcurrentPostingsKeepBalanceExact(t *testing.T) {
	repos := newMemoryRepos()
	accounts := services.NewAccountService(repos)
	journal := services.NewJournalService(repos, accounts)
	acc := createAccount(t, accounts, "1000")
	ctx := context.Background()

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := dto.ApplyDeltaRequest{AccountID: acc.AccountID, Amount: dec("10"), Direction: domain.Credit, Type: domain.EntryDeposit}
			if i%2 == 1 {
				req.Amount, req.Direction, req.Type = dec("7.5"), domain.Debit, domain.EntryWithdrawal
			}
			if _, err := accounts.ApplyDelta(ctx, req, "worker"); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	// 20 credits of 10 and 20 debits of 7.5
	assert.True(t, balanceOf(t, accounts, acc.AccountID).Equal(dec("1050")))

	report, err := journal.VerifyAccountBalance(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, workers, report.EntryCount)
	require.NotNil(t, report.LastBalanceAfter)
	assert.True(t, report.LastBalanceAfter.Equal(dec("1050")))
}

func TestApplyDelta_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	repos := newMemoryRepos()
	accounts := services.NewAccountService(repos)
	acc := createAccount(t, accounts, "100")
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := accounts.ApplyDelta(ctx, dto.ApplyDeltaRequest{
				AccountID: acc.AccountID, Amount: dec("10"), Direction: domain.Debit, Type: domain.EntryWithdrawal,
			}, "worker")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 20, rejected)
	assert.True(t, balanceOf(t, accounts, acc.AccountID).IsZero())
}

func TestUnitOfWork_RetriesConflicts(t *testing.T) {
	txm := new(MockTransactionManager)
	txm.On("RunInTx", mock.Anything, mock.Anything).Return(apperrors.ErrConflict).Twice()
	txm.On("RunInTx", mock.Anything, mock.Anything).Return(nil).Once()

	svc := services.NewAccountService(portsrepo.RepositoryProvider{TxManager: txm})
	err := svc.DeactivateAccount(context.Background(), "acc-1", "manager")

	require.NoError(t, err)
	txm.AssertNumberOfCalls(t, "RunInTx", 3)
}

func TestUnitOfWork_GivesUpAfterMaxRetries(t *testing.T) {
	txm := new(MockTransactionManager)
	txm.On("RunInTx", mock.Anything, mock.Anything).Return(apperrors.ErrConflict)

	svc := services.NewAccountService(portsrepo.RepositoryProvider{TxManager: txm}, services.WithMaxRetries(2))
	err := svc.DeactivateAccount(context.Background(), "acc-1", "manager")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	txm.AssertNumberOfCalls(t, "RunInTx", 3)
}

func TestUnitOfWork_DoesNotRetryOtherErrors(t *testing.T) {
	txm := new(MockTransactionManager)
	txm.On("RunInTx", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	svc := services.NewAccountService(portsrepo.RepositoryProvider{TxManager: txm})
	err := svc.DeactivateAccount(context.Background(), "acc-1", "manager")

	assert.ErrorIs(t, err, assert.AnError)
	txm.AssertExpectations(t)
}
