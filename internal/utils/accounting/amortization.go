package accounting

import (
	"fmt"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FlatSchedule builds a flat-interest repayment plan.
//
// totalRepayable = principal * (1 + rate/100). Every installment is
// totalRepayable/months rounded to 2 places, except the last which absorbs the
// rounding remainder so the installments sum to exactly totalRepayable.
// Terms that would leave any installment at or below zero are rejected.
// Installment n falls due n calendar months after start.
func FlatSchedule(principal decimal.Decimal, months int, ratePercent decimal.Decimal, start time.Time) (domain.LoanSchedule, error) {
	if !principal.IsPositive() {
		return domain.LoanSchedule{}, fmt.Errorf("principal must be positive, got %s", principal)
	}
	if months <= 0 {
		return domain.LoanSchedule{}, fmt.Errorf("duration must be at least one month, got %d", months)
	}
	if ratePercent.IsNegative() {
		return domain.LoanSchedule{}, fmt.Errorf("interest rate cannot be negative, got %s", ratePercent)
	}

	total := principal.Mul(decimal.NewFromInt(1).Add(ratePercent.Div(hundred))).Round(2)
	installment := total.DivRound(decimal.NewFromInt(int64(months)), 2)
	last := total.Sub(installment.Mul(decimal.NewFromInt(int64(months - 1))))
	if !installment.IsPositive() || !last.IsPositive() {
		return domain.LoanSchedule{}, fmt.Errorf("total of %s is too small to repay over %d months", total, months)
	}

	installments := make([]domain.Installment, months)
	for i := 0; i < months; i++ {
		amount := installment
		if i == months-1 {
			amount = last
		}
		installments[i] = domain.Installment{
			Number:  i + 1,
			DueDate: AddMonthsClamped(start, i+1),
			Amount:  amount,
			Status:  domain.InstallmentPending,
		}
	}

	return domain.LoanSchedule{
		Principal:         principal,
		InterestRate:      ratePercent,
		DurationMonths:    months,
		TotalRepayable:    total,
		InstallmentAmount: installment,
		Installments:      installments,
	}, nil
}

// AddMonthsClamped adds n calendar months, clamping the day to the end of the
// target month (Jan 31 + 1 month = Feb 28/29) instead of overflowing like time.AddDate.
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
