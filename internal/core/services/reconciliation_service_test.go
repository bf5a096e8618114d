package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceTestSuite struct {
	suite.Suite
	repos    portsrepo.RepositoryProvider
	accounts portssvc.AccountSvcFacade
	journal  portssvc.JournalSvcFacade
	service  portssvc.ReconciliationSvc
	account  *domain.Account
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.repos = newMemoryRepos()
	suite.accounts = services.NewAccountService(suite.repos, clock())
	suite.journal = services.NewJournalService(suite.repos, suite.accounts, clock())
	suite.service = services.NewReconciliationService(suite.repos, decimal.Zero, clock())
	suite.account = createAccount(suite.T(), suite.accounts, "1000")
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

func (suite *ReconciliationServiceTestSuite) record(entryType domain.EntryType, amount string) *domain.JournalEntry {
	entry, err := suite.journal.Record(context.Background(), dto.RecordEntryRequest{
		AccountID: suite.account.AccountID, Amount: dec(amount), Type: entryType,
	}, "cashier")
	suite.Require().NoError(err)
	return entry
}

func (suite *ReconciliationServiceTestSuite) TestReconcile_ReportsDifferenceWithoutTouchingBalance() {
	suite.record(domain.EntryDeposit, "4000")
	asOf := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	rec, err := suite.service.Reconcile(context.Background(), suite.account.AccountID, dto.ReconcileRequest{
		StatementBalance: dec("4950"), AsOfDate: &asOf, Notes: "January statement",
	}, "accountant")

	suite.Require().NoError(err)
	suite.True(rec.SystemBalance.Equal(dec("5000")))
	suite.True(rec.Difference.Equal(dec("-50")))
	suite.False(rec.Balanced())
	suite.True(balanceOf(suite.T(), suite.accounts, suite.account.AccountID).Equal(dec("5000")))

	acc, err := suite.accounts.GetAccountByID(context.Background(), suite.account.AccountID)
	suite.Require().NoError(err)
	suite.Require().NotNil(acc.LastReconciledAt)
	suite.Equal(asOf, *acc.LastReconciledAt)

	history, err := suite.service.ListReconciliations(context.Background(), suite.account.AccountID, 10, 0)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(rec.ReconciliationID, history[0].ReconciliationID)
}

func (suite *ReconciliationServiceTestSuite) TestReconcile_UnknownAccount() {
	_, err := suite.service.Reconcile(context.Background(), "missing", dto.ReconcileRequest{StatementBalance: dec("1")}, "accountant")
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestReconcileEntries_ComputesStatus() {
	credit := suite.record(domain.EntryDeposit, "500")
	suite.record(domain.EntryWithdrawal, "200")

	status, err := suite.service.ReconcileEntries(context.Background(), suite.account.AccountID,
		dto.ReconcileEntriesRequest{EntryIDs: []string{credit.EntryID}}, "accountant")

	suite.Require().NoError(err)
	suite.True(status.ReconciledBalance.Equal(dec("1500")))
	suite.True(status.ExpectedBalance.Equal(dec("1300")))
	suite.True(status.CurrentBalance.Equal(dec("1300")))
	suite.Equal(1, status.ReconciledCount)
	suite.Equal(1, status.UnreconciledCount)
	suite.False(status.IntegrityWarning)

	entry, err := suite.journal.GetEntry(context.Background(), credit.EntryID)
	suite.Require().NoError(err)
	suite.True(entry.Reconciled)
	suite.Equal("accountant", entry.ReconciledBy)
}

func (suite *ReconciliationServiceTestSuite) TestReconcileEntries_AllOrNothing() {
	ctx := context.Background()
	first := suite.record(domain.EntryDeposit, "10")
	second := suite.record(domain.EntryDeposit, "20")
	other := createAccount(suite.T(), suite.accounts, "0")
	foreign, err := suite.journal.Record(ctx, dto.RecordEntryRequest{AccountID: other.AccountID, Amount: dec("5"), Type: domain.EntryDeposit}, "cashier")
	suite.Require().NoError(err)

	_, err = suite.service.ReconcileEntries(ctx, suite.account.AccountID,
		dto.ReconcileEntriesRequest{EntryIDs: []string{first.EntryID, "missing"}}, "accountant")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.service.ReconcileEntries(ctx, suite.account.AccountID,
		dto.ReconcileEntriesRequest{EntryIDs: []string{first.EntryID, foreign.EntryID}}, "accountant")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	status, err := suite.service.GetReconciliationStatus(ctx, suite.account.AccountID)
	suite.Require().NoError(err)
	suite.Equal(0, status.ReconciledCount)

	_, err = suite.service.ReconcileEntries(ctx, suite.account.AccountID,
		dto.ReconcileEntriesRequest{EntryIDs: []string{first.EntryID}}, "accountant")
	suite.Require().NoError(err)

	_, err = suite.service.ReconcileEntries(ctx, suite.account.AccountID,
		dto.ReconcileEntriesRequest{EntryIDs: []string{second.EntryID, first.EntryID}}, "accountant")
	suite.ErrorIs(err, apperrors.ErrAlreadyReconciled)

	unreconciled, err := suite.journal.GetEntry(ctx, second.EntryID)
	suite.Require().NoError(err)
	suite.False(unreconciled.Reconciled)
}

func (suite *ReconciliationServiceTestSuite) TestReconcileEntries_RequiresIDs() {
	_, err := suite.service.ReconcileEntries(context.Background(), suite.account.AccountID, dto.ReconcileEntriesRequest{}, "accountant")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestGetReconciliationStatus_IntegrityWarning() {
	ctx := context.Background()
	suite.record(domain.EntryDeposit, "100")

	status, err := suite.service.GetReconciliationStatus(ctx, suite.account.AccountID)
	suite.Require().NoError(err)
	suite.False(status.IntegrityWarning)

	acc, err := suite.repos.AccountRepo.FindAccountByID(ctx, suite.account.AccountID)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repos.AccountRepo.UpdateAccountBalance(ctx, acc.AccountID, dec("1100.02"), acc.Version, "intruder", fixedNow))

	status, err = suite.service.GetReconciliationStatus(ctx, suite.account.AccountID)
	suite.Require().NoError(err)
	suite.True(status.IntegrityWarning)
	suite.True(status.ExpectedBalance.Equal(dec("1100")))
}
