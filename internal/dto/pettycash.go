package dto

import "github.com/shopspring/decimal"

// SetupPettyCashRequest opens the float for a station.
type SetupPettyCashRequest struct {
	MinLimit       decimal.Decimal `json:"minLimit" validate:"gte=0,money"`
	MaxLimit       decimal.Decimal `json:"maxLimit" validate:"gt=0,money"`
	InitialBalance decimal.Decimal `json:"initialBalance" validate:"gte=0,money"`
}

// UpdatePettyCashLimitsRequest changes the float's thresholds.
type UpdatePettyCashLimitsRequest struct {
	MinLimit decimal.Decimal `json:"minLimit" validate:"gte=0,money"`
	MaxLimit decimal.Decimal `json:"maxLimit" validate:"gt=0,money"`
}

// PettyCashWithdrawalRequest asks to take cash out of the float.
type PettyCashWithdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0,money"`
	Description string          `json:"description" validate:"required,max=500"`
	Category    string          `json:"category" validate:"max=64"`
}

// PettyCashReplenishRequest tops up the float, optionally drawing from a bank account.
type PettyCashReplenishRequest struct {
	Amount           decimal.Decimal `json:"amount" validate:"gt=0,money"`
	Description      string          `json:"description" validate:"max=500"`
	FundingAccountID string          `json:"fundingAccountID" validate:"omitempty,max=64"`
}

// RejectPettyCashRequest carries the rejection reason.
type RejectPettyCashRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
