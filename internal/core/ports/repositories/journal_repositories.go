package repositories

import (
	"context"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
)

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves a single entry.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntryByReference retrieves the entry posted with a caller reference.
	FindEntryByReference(ctx context.Context, reference string) (*domain.JournalEntry, error)

	// FindEntriesByIDs retrieves multiple entries keyed by ID. Missing IDs are absent from the map.
	FindEntriesByIDs(ctx context.Context, entryIDs []string) (map[string]domain.JournalEntry, error)

	// ListEntries retrieves entries in posting order.
	ListEntries(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error)

	// SumEntries totals credits and debits for an account, optionally over reconciled entries only.
	SumEntries(ctx context.Context, accountID string, reconciledOnly bool) (domain.EntryTotals, error)

	// LatestEntry returns the most recently posted entry for an account, or apperrors.ErrNotFound.
	LatestEntry(ctx context.Context, accountID string) (*domain.JournalEntry, error)

	// CountEntriesReferencing counts entries that post to or reference the account.
	CountEntriesReferencing(ctx context.Context, accountID string) (int, error)
}

// JournalWriter defines write operations for journal entries
type JournalWriter interface {
	// SaveEntry inserts an entry and assigns its Sequence. A duplicate
	// reference yields apperrors.ErrDuplicate.
	SaveEntry(ctx context.Context, entry *domain.JournalEntry) error

	// MarkEntriesReconciled flags entries as reconciled.
	MarkEntriesReconciled(ctx context.Context, entryIDs []string, userID string, at time.Time) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
