package utils

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// defaultPrecision applies to currency codes go-money does not know.
const defaultPrecision = 2

// CurrencyPrecision returns the number of minor-unit digits for an ISO 4217 code.
// Example: LKR and USD return 2, JPY returns 0.
func CurrencyPrecision(currencyCode string) int {
	c := money.GetCurrency(strings.ToUpper(currencyCode))
	if c == nil {
		return defaultPrecision
	}
	return c.Fraction
}

// FormatWithCurrencyPrecision formats an amount with the correct precision for a given currency
// Example: amount 12.3456 with LKR returns "12.35"
// Example: amount 12.3456 with JPY returns "12"
func FormatWithCurrencyPrecision(amount decimal.Decimal, currencyCode string) string {
	return FormatWithPrecision(amount, CurrencyPrecision(currencyCode))
}

// FormatWithPrecision formats an amount with the given precision
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.StringFixed(int32(precision))
}
