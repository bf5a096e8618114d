package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PettyCashAccount is a row of the petty_cash_accounts table.
type PettyCashAccount struct {
	StationID               string          `db:"station_id"`
	CurrentBalance          decimal.Decimal `db:"current_balance"`
	MinLimit                decimal.Decimal `db:"min_limit"`
	MaxLimit                decimal.Decimal `db:"max_limit"`
	LastReplenishmentAmount decimal.Decimal `db:"last_replenishment_amount"`
	LastReplenishmentDate   *time.Time      `db:"last_replenishment_date"` // Nullable
	Version                 int64           `db:"version"`
	AuditFields
}

// PettyCashEntry is a row of the petty_cash_entries table.
type PettyCashEntry struct {
	EntryID          string          `db:"entry_id"`
	StationID        string          `db:"station_id"`
	Kind             string          `db:"kind"`
	Amount           decimal.Decimal `db:"amount"`
	Description      string          `db:"description"`
	Category         string          `db:"category"`
	ApprovalStatus   string          `db:"approval_status"`
	RequestedBy      string          `db:"requested_by"`
	ApprovedBy       string          `db:"approved_by"`
	ApprovedAt       *time.Time      `db:"approved_at"` // Nullable
	RejectionReason  string          `db:"rejection_reason"`
	FundingAccountID string          `db:"funding_account_id"`
	FundingEntryID   string          `db:"funding_entry_id"`
	Reversed         bool            `db:"reversed"`
	ReversedAt       *time.Time      `db:"reversed_at"` // Nullable
	ReversedBy       string          `db:"reversed_by"`
	AuditFields
}
