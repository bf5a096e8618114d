package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func clock() services.ServiceOption {
	return services.WithClock(func() time.Time { return fixedNow })
}

func newMemoryRepos() portsrepo.RepositoryProvider {
	return memory.NewRepositoryProvider(memory.New())
}

func newAccountRequest(currency, opening string) dto.CreateAccountRequest {
	return dto.CreateAccountRequest{
		BankName:       gofakeit.Company(),
		AccountNumber:  gofakeit.Numerify("##########"),
		AccountName:    gofakeit.Company() + " Operating",
		CurrencyCode:   currency,
		StationID:      "station-" + gofakeit.Numerify("###"),
		OpeningBalance: dec(opening),
	}
}

func createAccount(t *testing.T, svc portssvc.AccountSvcFacade, opening string) *domain.Account {
	t.Helper()
	acc, err := svc.CreateAccount(context.Background(), newAccountRequest("LKR", opening), "setup-user")
	require.NoError(t, err)
	return acc
}

func balanceOf(t *testing.T, svc portssvc.AccountReaderSvc, accountID string) decimal.Decimal {
	t.Helper()
	acc, err := svc.GetAccountByID(context.Background(), accountID)
	require.NoError(t, err)
	return acc.CurrentBalance
}

// MockTransactionManager is a mock type for the TransactionManager interface
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) RunInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockLocker is a mock type for the Locker interface
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

var errDiskFull = errors.New("disk full")

// faultyTxManager fails the Nth journal insert across all units of work it runs.
type faultyTxManager struct {
	inner  portsrepo.TransactionManager
	failAt int64
	saves  atomic.Int64
}

func (f *faultyTxManager) RunInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	return f.inner.RunInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		return fn(ctx, &faultyStore{Store: store, owner: f})
	})
}

type faultyStore struct {
	portsrepo.Store
	owner *faultyTxManager
}

func (s *faultyStore) Journal() portsrepo.JournalRepositoryFacade {
	return &faultyJournal{JournalRepositoryFacade: s.Store.Journal(), owner: s.owner}
}

type faultyJournal struct {
	portsrepo.JournalRepositoryFacade
	owner *faultyTxManager
}

func (j *faultyJournal) SaveEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if j.owner.saves.Add(1) == j.owner.failAt {
		return errDiskFull
	}
	return j.JournalRepositoryFacade.SaveEntry(ctx, entry)
}
