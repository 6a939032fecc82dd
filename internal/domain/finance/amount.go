package finance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits every stored amount carries.
const AmountScale = 2

// maxAmount is the first value that no longer fits numeric(14,2).
var maxAmount = decimal.New(1, 12)

var (
	ErrAmountMalformed   = errors.New("amount is not a decimal number")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountNegative    = errors.New("amount must not be negative")
	ErrAmountPrecision   = fmt.Errorf("amount must have at most %d fractional digits", AmountScale)
	ErrAmountRange       = errors.New("amount is out of range")
	ErrUnknownCurrency   = errors.New("unknown currency code")
)

// ValidateAmount enforces the ledger entry rule: positive, non-zero, at most two decimals.
func ValidateAmount(v decimal.Decimal) error {
	if v.Sign() <= 0 {
		return ErrAmountNotPositive
	}
	return validateMagnitude(v)
}

// ValidateBudget is ValidateAmount that also accepts zero.
func ValidateBudget(v decimal.Decimal) error {
	if v.Sign() < 0 {
		return ErrAmountNegative
	}
	return validateMagnitude(v)
}

func validateMagnitude(v decimal.Decimal) error {
	if !v.Equal(v.Truncate(AmountScale)) {
		return ErrAmountPrecision
	}
	if v.Abs().GreaterThanOrEqual(maxAmount) {
		return ErrAmountRange
	}
	return nil
}

// ParseAmount parses a plain decimal string. Exponent notation, NaN and infinities are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "eEnNiI") {
		return decimal.Zero, ErrAmountMalformed
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrAmountMalformed
	}
	return v, nil
}

// SumAmounts adds exactly; the empty sum is zero.
func SumAmounts(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// SumNullAmounts is SumAmounts skipping NULLs.
func SumNullAmounts(values []decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}

// ValidateCurrency upper-cases code and checks it against the ISO-4217 table.
func ValidateCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(code) == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return code, nil
}

// FormatAmount renders v for display in the organization currency, e.g. "$1,500.00".
// Unknown currencies fall back to the plain fixed-point string.
func FormatAmount(v decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(currency)))
	if cur == nil {
		return v.StringFixed(AmountScale)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(v.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}
