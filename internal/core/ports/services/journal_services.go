package services

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
)

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error)

	// VerifyAccountBalance recomputes the balance from the journal and reports divergence.
	VerifyAccountBalance(ctx context.Context, accountID string) (*domain.BalanceVerification, error)
}

// JournalWriterSvc defines write operations for journal entries
type JournalWriterSvc interface {
	// Record posts a categorised entry for a collaborating module.
	Record(ctx context.Context, req dto.RecordEntryRequest, userID string) (*domain.JournalEntry, error)

	// ReverseEntry posts a compensating entry. The original is never modified.
	ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
