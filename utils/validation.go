package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAtomicAmount parses an amount string in atomic units. The amount must
// be a non-negative integer.
func ParseAtomicAmount(amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}

	if !dec.Equal(dec.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("amount must be an integer in atomic units")
	}

	return dec, nil
}

// ValidateAtomicAmount checks that amount is a non-negative integer string.
func ValidateAtomicAmount(amount string) error {
	_, err := ParseAtomicAmount(amount)
	return err
}

// AmountCovers reports whether value is at least required. Both are atomic
// unit strings.
func AmountCovers(value, required string) (bool, error) {
	v, err := ParseAtomicAmount(value)
	if err != nil {
		return false, fmt.Errorf("value: %w", err)
	}

	r, err := ParseAtomicAmount(required)
	if err != nil {
		return false, fmt.Errorf("required: %w", err)
	}

	return v.GreaterThanOrEqual(r), nil
}

// ParseAmountWithDecimals parses a human-readable decimal amount string and
// converts it to a big.Int in atomic units of the given precision.
func ParseAmountWithDecimals(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	multiplier := decimal.NewFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	return dec.Mul(multiplier).BigInt(), nil
}

// FormatAtomicAmount formats an atomic unit amount string as a human-readable
// decimal string with the given precision. Invalid input is returned as is.
func FormatAtomicAmount(amount string, decimals int) string {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}

	return dec.Shift(-int32(decimals)).String()
}
