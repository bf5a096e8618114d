package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanScheduleRequest holds the terms needed to compute a repayment plan.
type LoanScheduleRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"gt=0,money"`
	InterestRate   decimal.Decimal `json:"interestRate" validate:"gte=0,lte=100,money"`
	DurationMonths int             `json:"durationMonths" validate:"required,min=1,max=120"`
	StartDate      *time.Time      `json:"startDate"`
}

// LoanApplicationRequest is an employee's loan application.
type LoanApplicationRequest struct {
	LoanScheduleRequest
	EmployeeID string `json:"employeeID" validate:"required,max=64"`
	StationID  string `json:"stationID" validate:"omitempty,max=64"`
	Purpose    string `json:"purpose" validate:"max=500"`
}

// ApproveLoanRequest optionally names the bank account that pays out the principal.
type ApproveLoanRequest struct {
	DisbursementAccountID string `json:"disbursementAccountID" validate:"omitempty,max=64"`
}

// LoanDecisionRequest carries the reason for a rejection or cancellation.
type LoanDecisionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// LoanPaymentRequest records repayment of one installment, optionally banking it.
type LoanPaymentRequest struct {
	InstallmentNumber int    `json:"installmentNumber" validate:"required,min=1"`
	DepositAccountID  string `json:"depositAccountID" validate:"omitempty,max=64"`
}
