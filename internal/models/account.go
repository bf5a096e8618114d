package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a row of the accounts table.
type Account struct {
	AccountID        string          `db:"account_id"`
	BankName         string          `db:"bank_name"`
	AccountNumber    string          `db:"account_number"`
	AccountName      string          `db:"account_name"`
	CurrencyCode     string          `db:"currency_code"`
	StationID        string          `db:"station_id"`
	OpeningBalance   decimal.Decimal `db:"opening_balance"`
	CurrentBalance   decimal.Decimal `db:"current_balance"`
	IsActive         bool            `db:"is_active"`
	LastReconciledAt *time.Time      `db:"last_reconciled_at"` // Nullable
	Version          int64           `db:"version"`
	AuditFields
}

// Reconciliation is a row of the reconciliations table.
type Reconciliation struct {
	ReconciliationID string          `db:"reconciliation_id"`
	AccountID        string          `db:"account_id"`
	StatementBalance decimal.Decimal `db:"statement_balance"`
	SystemBalance    decimal.Decimal `db:"system_balance"`
	Difference       decimal.Decimal `db:"difference"`
	AsOfDate         time.Time       `db:"as_of_date"`
	Notes            string          `db:"notes"`
	AuditFields
}
