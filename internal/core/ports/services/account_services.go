package services

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves accounts matching the filter.
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account with its opening balance.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount updates descriptive fields. Balances only change through ApplyDelta.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive so it accepts no further postings.
	DeactivateAccount(ctx context.Context, accountID string, userID string) error

	// DeleteAccount removes an account that no journal entry references.
	DeleteAccount(ctx context.Context, accountID string, userID string) error
}

// AccountBalanceSvc is the single entry point for balance mutation.
type AccountBalanceSvc interface {
	// ApplyDelta credits or debits an account and records the journal entry atomically.
	ApplyDelta(ctx context.Context, req dto.ApplyDeltaRequest, userID string) (*domain.JournalEntry, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountBalanceSvc
}
