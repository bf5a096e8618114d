package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest moves Amount from one account to another.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountID" validate:"required"`
	ToAccountID   string          `json:"toAccountID" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0,money"`
	Description   string          `json:"description" validate:"max=500"`
	Reference     string          `json:"reference" validate:"max=120"`
	EntryDate     *time.Time      `json:"entryDate"`
}
