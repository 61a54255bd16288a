package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// FromDecimal converts a non-negative decimal with at most 18 fractional
// digits into a WAD value.
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %s", d)
	}
	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s exceeds %d decimals", d, Decimals)
	}
	z, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Parse reads a human decimal string such as "1.05" into a WAD value.
func Parse(input string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", input, err)
	}
	return FromDecimal(d)
}

// ToDecimal converts a WAD value back into a decimal.
func ToDecimal(x *uint256.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x.ToBig(), -Decimals)
}

// Format renders a WAD value as a decimal string.
func Format(x *uint256.Int) string {
	return ToDecimal(x).String()
}
