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
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TransferServiceTestSuite struct {
	suite.Suite
	repos    portsrepo.RepositoryProvider
	accounts portssvc.AccountSvcFacade
	journal  portssvc.JournalSvcFacade
	service  portssvc.TransferSvc
	from     *domain.Account
	to       *domain.Account
}

func (suite *TransferServiceTestSuite) SetupTest() {
	suite.repos = newMemoryRepos()
	suite.accounts = services.NewAccountService(suite.repos, clock())
	suite.journal = services.NewJournalService(suite.repos, suite.accounts, clock())
	suite.service = services.NewTransferService(suite.repos, clock())
	suite.from = createAccount(suite.T(), suite.accounts, "1000")
	suite.to = createAccount(suite.T(), suite.accounts, "200")
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}

func (suite *TransferServiceTestSuite) transfer(amount, reference string) (*domain.Transfer, error) {
	return suite.service.Transfer(context.Background(), dto.TransferRequest{
		FromAccountID: suite.from.AccountID,
		ToAccountID:   suite.to.AccountID,
		Amount:        dec(amount),
		Reference:     reference,
	}, "accountant")
}

func (suite *TransferServiceTestSuite) assertBalances(from, to string) {
	suite.True(balanceOf(suite.T(), suite.accounts, suite.from.AccountID).Equal(dec(from)), "source balance")
	suite.True(balanceOf(suite.T(), suite.accounts, suite.to.AccountID).Equal(dec(to)), "destination balance")
}

func (suite *TransferServiceTestSuite) TestTransfer_PostsBothLegs() {
	transfer, err := suite.transfer("300", "")

	suite.Require().NoError(err)
	suite.assertBalances("700", "500")
	suite.Equal(transfer.TransferID, transfer.Debit.TransferID)
	suite.Equal(transfer.TransferID, transfer.Credit.TransferID)
	suite.Equal(domain.Debit, transfer.Debit.Direction)
	suite.Equal(domain.Credit, transfer.Credit.Direction)
	suite.Equal(suite.to.AccountID, transfer.Debit.RelatedAccountID)
	suite.Equal(suite.from.AccountID, transfer.Credit.RelatedAccountID)
	suite.Equal(domain.EntryTransfer, transfer.Credit.Type)

	loaded, err := suite.service.GetTransfer(context.Background(), transfer.TransferID)
	suite.Require().NoError(err)
	suite.Equal(transfer.Debit.EntryID, loaded.Debit.EntryID)
	suite.Equal(transfer.Credit.EntryID, loaded.Credit.EntryID)
	suite.True(loaded.Amount.Equal(dec("300")))
}

func (suite *TransferServiceTestSuite) TestTransfer_Failures() {
	ctx := context.Background()

	_, err := suite.service.Transfer(ctx, dto.TransferRequest{
		FromAccountID: suite.from.AccountID, ToAccountID: suite.from.AccountID, Amount: dec("1"),
	}, "accountant")
	suite.ErrorIs(err, apperrors.ErrSameAccount)

	_, err = suite.transfer("1000.01", "")
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)

	_, err = suite.transfer("-5", "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.transfer("0.00001", "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Transfer(ctx, dto.TransferRequest{
		FromAccountID: suite.from.AccountID, ToAccountID: "missing", Amount: dec("1"),
	}, "accountant")
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)

	usd, err := suite.accounts.CreateAccount(ctx, newAccountRequest("USD", "0"), "admin")
	suite.Require().NoError(err)
	_, err = suite.service.Transfer(ctx, dto.TransferRequest{
		FromAccountID: suite.from.AccountID, ToAccountID: usd.AccountID, Amount: dec("1"),
	}, "accountant")
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.Require().NoError(suite.accounts.DeactivateAccount(ctx, suite.to.AccountID, "admin"))
	_, err = suite.transfer("1", "")
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	suite.assertBalances("1000", "200")
	entries, err := suite.journal.ListEntries(ctx, domain.JournalFilter{AccountID: suite.from.AccountID})
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *TransferServiceTestSuite) TestTransfer_ReferenceIsIdempotent() {
	first, err := suite.transfer("100", "payroll-2026-01")
	suite.Require().NoError(err)
	second, err := suite.transfer("100", "payroll-2026-01")
	suite.Require().NoError(err)

	suite.Equal(first.TransferID, second.TransferID)
	suite.Equal("payroll-2026-01", second.Reference)
	suite.assertBalances("900", "300")

	_, err = suite.transfer("150", "payroll-2026-01")
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *TransferServiceTestSuite) TestGetTransfer_NotFound() {
	_, err := suite.service.GetTransfer(context.Background(), "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestTransfer_FailedCreditLegRollsBackDebit(t *testing.T) {
	repos := newMemoryRepos()
	accounts := services.NewAccountService(repos)
	from := createAccount(t, accounts, "1000")
	to := createAccount(t, accounts, "0")

	faulty := repos
	faulty.TxManager = &faultyTxManager{inner: repos.TxManager, failAt: 2}
	transfers := services.NewTransferService(faulty)

	_, err := transfers.Transfer(context.Background(), dto.TransferRequest{
		FromAccountID: from.AccountID, ToAccountID: to.AccountID, Amount: dec("400"),
	}, "accountant")

	require.ErrorIs(t, err, errDiskFull)
	assert.True(t, balanceOf(t, accounts, from.AccountID).Equal(dec("1000")))
	assert.True(t, balanceOf(t, accounts, to.AccountID).IsZero())
	entries, err := repos.JournalRepo.ListEntries(context.Background(), domain.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransfer_OpposingConcurrentTransfersConserveMoney(t *testing.T) {
	repos := newMemoryRepos()
	accounts := services.NewAccountService(repos)
	transfers := services.NewTransferService(repos)
	a := createAccount(t, accounts, "500")
	b := createAccount(t, accounts, "500")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		for _, pair := range [][2]string{{a.AccountID, b.AccountID}, {b.AccountID, a.AccountID}} {
			wg.Add(1)
			go func(from, to string) {
				defer wg.Done()
				if _, err := transfers.Transfer(ctx, dto.TransferRequest{FromAccountID: from, ToAccountID: to, Amount: dec("3")}, "worker"); err != nil {
					t.Error(err)
				}
			}(pair[0], pair[1])
		}
	}
	wg.Wait()

	total := balanceOf(t, accounts, a.AccountID).Add(balanceOf(t, accounts, b.AccountID))
	assert.True(t, total.Equal(dec("1000")))
	assert.True(t, balanceOf(t, accounts, a.AccountID).Equal(dec("500")))
}
