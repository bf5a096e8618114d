package repositories

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
)

// PettyCashAccountRepository persists station floats.
type PettyCashAccountRepository interface {
	FindPettyCashAccount(ctx context.Context, stationID string) (*domain.PettyCashAccount, error)
	// FindPettyCashAccountForUpdate holds the float's lock until the unit of work ends.
	FindPettyCashAccountForUpdate(ctx context.Context, stationID string) (*domain.PettyCashAccount, error)
	SavePettyCashAccount(ctx context.Context, account domain.PettyCashAccount) error
	// UpdatePettyCashAccount writes the float if its version still equals expectedVersion.
	UpdatePettyCashAccount(ctx context.Context, account domain.PettyCashAccount, expectedVersion int64) error
}

// PettyCashEntryRepository persists withdrawal and replenishment requests.
type PettyCashEntryRepository interface {
	FindPettyCashEntry(ctx context.Context, entryID string) (*domain.PettyCashEntry, error)
	// FindPettyCashEntryForUpdate holds the entry's lock until the unit of work ends.
	FindPettyCashEntryForUpdate(ctx context.Context, entryID string) (*domain.PettyCashEntry, error)
	SavePettyCashEntry(ctx context.Context, entry domain.PettyCashEntry) error
	UpdatePettyCashEntry(ctx context.Context, entry domain.PettyCashEntry) error
	DeletePettyCashEntry(ctx context.Context, entryID string) error
	ListPettyCashEntries(ctx context.Context, filter domain.PettyCashFilter) ([]domain.PettyCashEntry, error)
}

// PettyCashRepositoryFacade combines the petty cash repositories.
type PettyCashRepositoryFacade interface {
	PettyCashAccountRepository
	PettyCashEntryRepository
}
