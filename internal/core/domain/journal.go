package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a journal entry.
type EntryType string

const (
	EntryDeposit    EntryType = "deposit"
	EntryWithdrawal EntryType = "withdrawal"
	EntryTransfer   EntryType = "transfer"
	EntryInterest   EntryType = "interest"
	EntryCharge     EntryType = "charge"
	EntryOther      EntryType = "other"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryDeposit, EntryWithdrawal, EntryTransfer, EntryInterest, EntryCharge, EntryOther:
		return true
	}
	return false
}

// ImpliedDirection returns the direction an entry type always posts with,
// or "" when the caller has to choose.
func (t EntryType) ImpliedDirection() Direction {
	switch t {
	case EntryDeposit, EntryInterest:
		return Credit
	case EntryWithdrawal, EntryCharge:
		return Debit
	}
	return ""
}

// EntrySource names the back-office module that originated an entry.
type EntrySource string

const (
	SourceSales     EntrySource = "sales"
	SourceExpense   EntrySource = "expense"
	SourcePayroll   EntrySource = "payroll"
	SourcePettyCash EntrySource = "petty_cash"
	SourceLoan      EntrySource = "loan"
	SourceManual    EntrySource = "manual"
	SourceReversal  EntrySource = "reversal"
)

// JournalEntry is an immutable record of one balance change on one account.
// Only the reconciliation fields change after insert.
type JournalEntry struct {
	EntryID          string          `json:"entryID"`
	AccountID        string          `json:"accountID"`
	RelatedAccountID string          `json:"relatedAccountID,omitempty"`
	TransferID       string          `json:"transferID,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Direction        Direction       `json:"direction"`
	Type             EntryType       `json:"type"`
	Source           EntrySource     `json:"source"`
	Description      string          `json:"description"`
	EntryDate        time.Time       `json:"entryDate"`
	BalanceAfter     decimal.Decimal `json:"balanceAfter"`
	Sequence         int64           `json:"sequence"`
	Reconciled       bool            `json:"reconciled"`
	ReconciledAt     *time.Time      `json:"reconciledAt,omitempty"`
	ReconciledBy     string          `json:"reconciledBy,omitempty"`
	AuditFields
}

// SignedAmount is the entry's effect on the account balance.
func (e JournalEntry) SignedAmount() decimal.Decimal {
	if e.Direction == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// JournalFilter narrows ListEntries. Zero values mean "no filter".
type JournalFilter struct {
	AccountID  string
	TransferID string
	Reconciled *bool
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// EntryTotals aggregates credits and debits over a set of entries.
type EntryTotals struct {
	Credits decimal.Decimal `json:"credits"`
	Debits  decimal.Decimal `json:"debits"`
	Count   int             `json:"count"`
}

// Net is credits minus debits.
func (t EntryTotals) Net() decimal.Decimal {
	return t.Credits.Sub(t.Debits)
}

// BalanceVerification is the result of recomputing an account balance from its journal.
type BalanceVerification struct {
	AccountID        string           `json:"accountID"`
	OpeningBalance   decimal.Decimal  `json:"openingBalance"`
	CurrentBalance   decimal.Decimal  `json:"currentBalance"`
	ComputedBalance  decimal.Decimal  `json:"computedBalance"`
	LastBalanceAfter *decimal.Decimal `json:"lastBalanceAfter,omitempty"`
	EntryCount       int              `json:"entryCount"`
	Consistent       bool             `json:"consistent"`
	CheckedAt        time.Time        `json:"checkedAt"`
}

// Transfer groups the two legs of an inter-account transfer.
type Transfer struct {
	TransferID    string          `json:"transferID"`
	FromAccountID string          `json:"fromAccountID"`
	ToAccountID   string          `json:"toAccountID"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference,omitempty"`
	Debit         JournalEntry    `json:"debit"`
	Credit        JournalEntry    `json:"credit"`
}
