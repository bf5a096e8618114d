package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is a row of the loans table. Installments live in loan_installments.
type Loan struct {
	LoanID                string          `db:"loan_id"`
	EmployeeID            string          `db:"employee_id"`
	StationID             string          `db:"station_id"`
	Amount                decimal.Decimal `db:"amount"`
	InterestRate          decimal.Decimal `db:"interest_rate"`
	DurationMonths        int             `db:"duration_months"`
	InstallmentAmount     decimal.Decimal `db:"installment_amount"`
	TotalRepayable        decimal.Decimal `db:"total_repayable"`
	RemainingAmount       decimal.Decimal `db:"remaining_amount"`
	StartDate             time.Time       `db:"start_date"`
	EndDate               *time.Time      `db:"end_date"` // Nullable
	Status                string          `db:"status"`
	Purpose               string          `db:"purpose"`
	ApprovedBy            string          `db:"approved_by"`
	ApprovedAt            *time.Time      `db:"approved_at"` // Nullable
	DisbursementAccountID string          `db:"disbursement_account_id"`
	DisbursementEntryID   string          `db:"disbursement_entry_id"`
	RejectionReason       string          `db:"rejection_reason"`
	CancellationReason    string          `db:"cancellation_reason"`
	Version               int64           `db:"version"`
	AuditFields
}

// LoanInstallment is a row of the loan_installments table.
type LoanInstallment struct {
	LoanID         string          `db:"loan_id"`
	Number         int             `db:"number"`
	DueDate        time.Time       `db:"due_date"`
	Amount         decimal.Decimal `db:"amount"`
	Status         string          `db:"status"`
	PaidAt         *time.Time      `db:"paid_at"` // Nullable
	PaymentEntryID string          `db:"payment_entry_id"`
}
