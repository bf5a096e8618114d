package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle of an employee loan. Completed, Rejected and Cancelled are terminal.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanRejected  LoanStatus = "rejected"
	LoanCancelled LoanStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s LoanStatus) Terminal() bool {
	return s == LoanCompleted || s == LoanRejected || s == LoanCancelled
}

// InstallmentStatus tracks repayment of one scheduled installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentOverdue InstallmentStatus = "overdue"
	InstallmentPaid    InstallmentStatus = "paid"
)

// Installment is one scheduled repayment.
type Installment struct {
	Number         int               `json:"number"`
	DueDate        time.Time         `json:"dueDate"`
	Amount         decimal.Decimal   `json:"amount"`
	Status         InstallmentStatus `json:"status"`
	PaidAt         *time.Time        `json:"paidAt,omitempty"`
	PaymentEntryID string            `json:"paymentEntryID,omitempty"`
}

// Loan is an employee loan with a flat-interest repayment schedule.
type Loan struct {
	LoanID                string          `json:"loanID"`
	EmployeeID            string          `json:"employeeID"`
	StationID             string          `json:"stationID,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	InterestRate          decimal.Decimal `json:"interestRate"`
	DurationMonths        int             `json:"durationMonths"`
	InstallmentAmount     decimal.Decimal `json:"installmentAmount"`
	TotalRepayable        decimal.Decimal `json:"totalRepayable"`
	RemainingAmount       decimal.Decimal `json:"remainingAmount"`
	StartDate             time.Time       `json:"startDate"`
	EndDate               *time.Time      `json:"endDate,omitempty"`
	Status                LoanStatus      `json:"status"`
	Purpose               string          `json:"purpose,omitempty"`
	ApprovedBy            string          `json:"approvedBy,omitempty"`
	ApprovedAt            *time.Time      `json:"approvedAt,omitempty"`
	DisbursementAccountID string          `json:"disbursementAccountID,omitempty"`
	DisbursementEntryID   string          `json:"disbursementEntryID,omitempty"`
	RejectionReason       string          `json:"rejectionReason,omitempty"`
	CancellationReason    string          `json:"cancellationReason,omitempty"`
	Installments          []Installment   `json:"installments"`
	Version               int64           `json:"version"`
	AuditFields
}

// Installment returns the installment with the given number, or nil.
func (l *Loan) Installment(number int) *Installment {
	for i := range l.Installments {
		if l.Installments[i].Number == number {
			return &l.Installments[i]
		}
	}
	return nil
}

// Outstanding sums the amounts of installments not yet paid.
func (l *Loan) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.Installments {
		if inst.Status != InstallmentPaid {
			total = total.Add(inst.Amount)
		}
	}
	return total
}

// LoanSchedule is a computed repayment plan.
type LoanSchedule struct {
	Principal         decimal.Decimal `json:"principal"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	DurationMonths    int             `json:"durationMonths"`
	TotalRepayable    decimal.Decimal `json:"totalRepayable"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	Installments      []Installment   `json:"installments"`
}

// LoanFilter narrows ListLoans.
type LoanFilter struct {
	EmployeeID string
	StationID  string
	Status     LoanStatus
	Limit      int
	Offset     int
}

// DueInstallment is an unpaid installment owed by an employee, used for payroll deduction.
type DueInstallment struct {
	LoanID            string            `json:"loanID"`
	EmployeeID        string            `json:"employeeID"`
	InstallmentNumber int               `json:"installmentNumber"`
	DueDate           time.Time         `json:"dueDate"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            InstallmentStatus `json:"status"`
}
