package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
// Reference is stored as NULL when empty so the unique index ignores it.
type JournalEntry struct {
	EntryID          string          `db:"entry_id"`
	Sequence         int64           `db:"sequence"`
	AccountID        string          `db:"account_id"`
	RelatedAccountID string          `db:"related_account_id"`
	TransferID       string          `db:"transfer_id"`
	Reference        string          `db:"reference"`
	Amount           decimal.Decimal `db:"amount"`
	Direction        string          `db:"direction"`
	EntryType        string          `db:"entry_type"`
	Source           string          `db:"source"`
	Description      string          `db:"description"`
	EntryDate        time.Time       `db:"entry_date"`
	BalanceAfter     decimal.Decimal `db:"balance_after"`
	Reconciled       bool            `db:"reconciled"`
	ReconciledAt     *time.Time      `db:"reconciled_at"` // Nullable
	ReconciledBy     string          `db:"reconciled_by"`
	AuditFields
}
