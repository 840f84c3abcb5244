// Package types provides the value types shared across Bistro.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Money is an amount in the smallest unit of its currency.
// All arithmetic is integer-only, there is no floating point anywhere in
// pricing, tax or cost accounting.
//
//   - TRY(11800) = ₺118.00
//   - USD(1240)  = $12.40
type Money struct {
	Amount   int64  `json:"amount"`   // minor units (kuruş, cents, ...)
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// New creates a Money value in the given currency.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// TRY creates a Money value in Turkish Lira (kuruş).
func TRY(kurus int64) Money { return Money{Amount: kurus, Currency: "try"} }

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// GBP creates a Money value in British Pounds (pence).
func GBP(pence int64) Money { return Money{Amount: pence, Currency: "gbp"} }

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money { return New(0, currency) }

// ──────────────────────────────────────────────────
// Arithmetic
// ──────────────────────────────────────────────────

// Add returns m + other. Panics if currencies differ.
func (m Money) Add(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract returns m - other. Panics if currencies differ.
func (m Money) Subtract(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply scales m by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// Negate returns -m.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// ──────────────────────────────────────────────────
// Comparison
// ──────────────────────────────────────────────────

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether amount and currency both match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// SameCurrency reports whether m and other can be combined.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// Compare returns -1, 0 or +1. Panics if currencies differ.
func (m Money) Compare(other Money) int {
	m.mustMatch(other)
	switch {
	case m.Amount < other.Amount:
		return -1
	case m.Amount > other.Amount:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether m < other. Panics if currencies differ.
func (m Money) LessThan(other Money) bool { return m.Compare(other) < 0 }

// CheckCurrency returns ErrCurrencyMismatch when m is not in currency.
func (m Money) CheckCurrency(currency string) error {
	if m.Currency != strings.ToLower(currency) {
		return fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, strings.ToLower(currency))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Formatting
// ──────────────────────────────────────────────────

// FormatMajor renders the amount in major units without a symbol,
// e.g. "11.80" for TRY(1180) or "100" for JPY(100).
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	divisor := int64(1)
	for range decimals {
		divisor *= 10
	}

	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%0*d", sign, abs/divisor, decimals, abs%divisor)
}

// String renders the amount with its currency symbol, e.g. "₺11.80".
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON adds a display field next to amount and currency.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Sum adds values in the given currency. An empty list yields zero.
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func (m Money) mustMatch(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

var symbols = map[string]string{
	"try": "₺",
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
}

func currencySymbol(currency string) string {
	if sym, ok := symbols[currency]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// zero-decimal currencies
var noMinorUnit = map[string]bool{
	"jpy": true,
	"krw": true,
	"vnd": true,
	"clp": true,
}

func currencyDecimals(currency string) int {
	if noMinorUnit[currency] {
		return 0
	}
	return 2
}
