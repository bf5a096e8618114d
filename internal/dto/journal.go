package dto

import (
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordEntryRequest is how collaborating modules (sales, expenses, payroll) post to an account.
// Direction may be omitted for types that imply one.
type RecordEntryRequest struct {
	AccountID   string             `json:"accountID" validate:"required"`
	Amount      decimal.Decimal    `json:"amount" validate:"gt=0,money"`
	Direction   domain.Direction   `json:"direction" validate:"omitempty,oneof=CREDIT DEBIT"`
	Type        domain.EntryType   `json:"type" validate:"required,oneof=deposit withdrawal transfer interest charge other"`
	Source      domain.EntrySource `json:"source" validate:"omitempty,oneof=sales expense payroll petty_cash loan manual"`
	Description string             `json:"description" validate:"max=500"`
	Reference   string             `json:"reference" validate:"max=128"`
	EntryDate   *time.Time         `json:"entryDate"`
}

// ReverseEntryRequest carries the reason for a compensating entry.
type ReverseEntryRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
