package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reconciliation records a comparison of a bank statement against the system balance.
// It never changes the balance.
type Reconciliation struct {
	ReconciliationID string          `json:"reconciliationID"`
	AccountID        string          `json:"accountID"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
	SystemBalance    decimal.Decimal `json:"systemBalance"`
	Difference       decimal.Decimal `json:"difference"`
	AsOfDate         time.Time       `json:"asOfDate"`
	Notes            string          `json:"notes,omitempty"`
	AuditFields
}

// Balanced reports whether the statement agrees with the system.
func (r Reconciliation) Balanced() bool {
	return r.Difference.IsZero()
}

// ReconciliationStatus summarises reconciled versus total journal activity for an account.
type ReconciliationStatus struct {
	AccountID         string          `json:"accountID"`
	OpeningBalance    decimal.Decimal `json:"openingBalance"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`
	ReconciledBalance decimal.Decimal `json:"reconciledBalance"`
	ExpectedBalance   decimal.Decimal `json:"expectedBalance"`
	ReconciledCount   int             `json:"reconciledCount"`
	UnreconciledCount int             `json:"unreconciledCount"`
	IntegrityWarning  bool            `json:"integrityWarning"`
	LastReconciledAt  *time.Time      `json:"lastReconciledAt,omitempty"`
}
