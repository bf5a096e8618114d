package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PettyCashKind distinguishes money leaving the float from money topping it up.
type PettyCashKind string

const (
	PettyCashWithdrawal    PettyCashKind = "withdrawal"
	PettyCashReplenishment PettyCashKind = "replenishment"
)

// ApprovalStatus is the lifecycle of a petty cash entry. Approved and Rejected are terminal.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// PettyCashAccount is the cash float held at one station.
type PettyCashAccount struct {
	StationID               string          `json:"stationID"`
	CurrentBalance          decimal.Decimal `json:"currentBalance"`
	MinLimit                decimal.Decimal `json:"minLimit"`
	MaxLimit                decimal.Decimal `json:"maxLimit"`
	LastReplenishmentAmount decimal.Decimal `json:"lastReplenishmentAmount"`
	LastReplenishmentDate   *time.Time      `json:"lastReplenishmentDate,omitempty"`
	Version                 int64           `json:"version"`
	AuditFields
}

// NeedsReplenishment is true once the float drops below its minimum.
func (a PettyCashAccount) NeedsReplenishment() bool {
	return a.CurrentBalance.LessThan(a.MinLimit)
}

// RecommendedReplenishment tops the float back up to its maximum.
func (a PettyCashAccount) RecommendedReplenishment() decimal.Decimal {
	gap := a.MaxLimit.Sub(a.CurrentBalance)
	if gap.IsNegative() {
		return decimal.Zero
	}
	return gap
}

// PettyCashStatus is the float plus derived replenishment hints.
type PettyCashStatus struct {
	Account                  PettyCashAccount `json:"account"`
	NeedsReplenishment       bool             `json:"needsReplenishment"`
	RecommendedReplenishment decimal.Decimal  `json:"recommendedReplenishment"`
	PendingEntries           int              `json:"pendingEntries"`
}

// PettyCashEntry is a withdrawal or replenishment request against a station float.
type PettyCashEntry struct {
	EntryID          string          `json:"entryID"`
	StationID        string          `json:"stationID"`
	Kind             PettyCashKind   `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	Category         string          `json:"category,omitempty"`
	ApprovalStatus   ApprovalStatus  `json:"approvalStatus"`
	RequestedBy      string          `json:"requestedBy"`
	ApprovedBy       string          `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason  string          `json:"rejectionReason,omitempty"`
	FundingAccountID string          `json:"fundingAccountID,omitempty"`
	FundingEntryID   string          `json:"fundingEntryID,omitempty"`
	Reversed         bool            `json:"reversed"`
	ReversedAt       *time.Time      `json:"reversedAt,omitempty"`
	ReversedBy       string          `json:"reversedBy,omitempty"`
	AuditFields
}

// PettyCashFilter narrows ListEntries.
type PettyCashFilter struct {
	StationID string
	Kind      PettyCashKind
	Status    ApprovalStatus
	Limit     int
	Offset    int
}
