package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileRequest compares a bank statement balance with the system balance.
type ReconcileRequest struct {
	StatementBalance decimal.Decimal `json:"statementBalance" validate:"money"`
	AsOfDate         *time.Time      `json:"asOfDate"`
	Notes            string          `json:"notes" validate:"max=1000"`
}

// ReconcileEntriesRequest marks journal entries as matched against a statement.
type ReconcileEntriesRequest struct {
	EntryIDs []string `json:"entryIDs" validate:"required,min=1,dive,required"`
}
