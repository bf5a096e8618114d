package repositories

import (
	"context"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves accounts matching the filter, ordered by account name.
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an account's descriptive fields and active flag. Balances are untouched.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeleteAccount removes an account row.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountBalanceSupport defines the operations a unit of work uses to mutate balances.
type AccountBalanceSupport interface {
	// FindAccountsByIDsForUpdate loads accounts and holds their row locks until the
	// unit of work ends. Locks are taken in ascending account ID order.
	FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalance writes a new balance if the stored version still equals
	// expectedVersion and increments the version. A stale version yields apperrors.ErrConflict.
	UpdateAccountBalance(ctx context.Context, accountID string, newBalance decimal.Decimal, expectedVersion int64, userID string, now time.Time) error

	// MarkAccountReconciled stamps the last reconciliation date.
	MarkAccountReconciled(ctx context.Context, accountID string, asOf time.Time, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountBalanceSupport
}
