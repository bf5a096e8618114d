package accounting

import (
	"fmt"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApplyDirection returns the balance after posting amount in the given direction.
// Credits add to the balance, debits subtract from it.
func ApplyDirection(balance, amount decimal.Decimal, direction domain.Direction) (decimal.Decimal, error) {
	switch direction {
	case domain.Credit:
		return balance.Add(amount), nil
	case domain.Debit:
		return balance.Sub(amount), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown direction '%s'", direction)
	}
}

// ExpectedBalance is opening + credits - debits.
func ExpectedBalance(opening decimal.Decimal, totals domain.EntryTotals) decimal.Decimal {
	return opening.Add(totals.Net())
}

// TotalsOf sums credits and debits over entries.
func TotalsOf(entries []domain.JournalEntry) domain.EntryTotals {
	totals := domain.EntryTotals{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, e := range entries {
		if e.Direction == domain.Debit {
			totals.Debits = totals.Debits.Add(e.Amount)
		} else {
			totals.Credits = totals.Credits.Add(e.Amount)
		}
		totals.Count++
	}
	return totals
}

// Diverges reports whether a and b differ by more than tolerance.
func Diverges(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(tolerance)
}
