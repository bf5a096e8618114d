package dto

import (
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to register a bank account.
type CreateAccountRequest struct {
	BankName       string          `json:"bankName" validate:"required,max=100"`
	AccountNumber  string          `json:"accountNumber" validate:"required,max=50"`
	AccountName    string          `json:"accountName" validate:"required,max=150"`
	CurrencyCode   string          `json:"currencyCode" validate:"required,len=3"`
	StationID      string          `json:"stationID" validate:"omitempty,max=64"`
	OpeningBalance decimal.Decimal `json:"openingBalance" validate:"gte=0,money"`
}

// UpdateAccountRequest defines the descriptive fields that may change.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	BankName      *string `json:"bankName" validate:"omitempty,min=1,max=100"`
	AccountNumber *string `json:"accountNumber" validate:"omitempty,min=1,max=50"`
	AccountName   *string `json:"accountName" validate:"omitempty,min=1,max=150"`
	StationID     *string `json:"stationID" validate:"omitempty,max=64"`
}

// ApplyDeltaRequest is a single credit or debit against one account.
type ApplyDeltaRequest struct {
	AccountID   string             `json:"accountID" validate:"required"`
	Amount      decimal.Decimal    `json:"amount" validate:"gt=0,money"`
	Direction   domain.Direction   `json:"direction" validate:"required,oneof=CREDIT DEBIT"`
	Type        domain.EntryType   `json:"type" validate:"required,oneof=deposit withdrawal transfer interest charge other"`
	Source      domain.EntrySource `json:"source" validate:"omitempty,max=32"`
	Description string             `json:"description" validate:"max=500"`
	// Reference is a caller-generated idempotency key. Replaying it returns the original entry.
	Reference string     `json:"reference" validate:"max=128"`
	EntryDate *time.Time `json:"entryDate"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID        string          `json:"accountID"`
	BankName         string          `json:"bankName"`
	AccountNumber    string          `json:"accountNumber"`
	AccountName      string          `json:"accountName"`
	CurrencyCode     string          `json:"currencyCode"`
	StationID        string          `json:"stationID,omitempty"`
	OpeningBalance   decimal.Decimal `json:"openingBalance"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	IsActive         bool            `json:"isActive"`
	LastReconciledAt *time.Time      `json:"lastReconciledAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
	LastUpdatedAt    time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy    string          `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:        acc.AccountID,
		BankName:         acc.BankName,
		AccountNumber:    acc.AccountNumber,
		AccountName:      acc.AccountName,
		CurrencyCode:     acc.CurrencyCode,
		StationID:        acc.StationID,
		OpeningBalance:   acc.OpeningBalance,
		CurrentBalance:   acc.CurrentBalance,
		IsActive:         acc.IsActive,
		LastReconciledAt: acc.LastReconciledAt,
		CreatedAt:        acc.CreatedAt,
		CreatedBy:        acc.CreatedBy,
		LastUpdatedAt:    acc.LastUpdatedAt,
		LastUpdatedBy:    acc.LastUpdatedBy,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}
