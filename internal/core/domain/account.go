package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a posting against a single running balance.
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// Opposite returns the compensating direction.
func (d Direction) Opposite() Direction {
	if d == Credit {
		return Debit
	}
	return Credit
}

// Account is a bank account held by the business, optionally tied to a station.
type Account struct {
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
	Version          int64           `json:"version"`
	AuditFields
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	StationID  string
	ActiveOnly bool
	Limit      int
	Offset     int
}
