package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places stored for every monetary value.
const AmountScale = 4

// FitsAmountScale reports whether d can be stored without rounding.
func FitsAmountScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// NewAuditFields stamps both the created and last updated fields.
func NewAuditFields(userID string, now time.Time) AuditFields {
	return AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
}

// Touch records a modification.
func (a *AuditFields) Touch(userID string, now time.Time) {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
}

// Role is the back-office role carried in the caller's token.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleAccountant Role = "accountant"
	RoleCashier    Role = "cashier"
	RoleEmployee   Role = "employee"
)

// CanApprovePettyCash reports whether the role may approve petty cash entries,
// which also makes its replenishments auto-approved.
func (r Role) CanApprovePettyCash() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAccountant:
		return true
	}
	return false
}

// CanApproveLoans reports whether the role may approve, reject or disburse loans.
func (r Role) CanApproveLoans() bool {
	return r == RoleAdmin || r == RoleManager
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID string `json:"userID"`
	Role   Role   `json:"role"`
}
