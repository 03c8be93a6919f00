package shared

import (
	"strings"

	"golang.org/x/text/currency"
)

// NormalizeCurrency validates an ISO-4217 code and returns it upper-cased.
// An empty code resolves to fallback.
func NormalizeCurrency(code, fallback string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = strings.ToUpper(fallback)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", NewValidationError("currency must be an ISO-4217 code")
	}
	return unit.String(), nil
}

// DefaultCurrency is used when no configured default is valid
const DefaultCurrency = "USD"

// NormalizeCurrencyOrDefault normalizes a configured default currency,
// falling back to DefaultCurrency when it is not a valid code.
func NormalizeCurrencyOrDefault(code string) string {
	c, err := NormalizeCurrency(code, DefaultCurrency)
	if err != nil {
		return DefaultCurrency
	}
	return c
}
