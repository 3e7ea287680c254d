package mathutil

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// BigZero is a shared read-only zero, never mutate it.
	BigZero = big.NewInt(0)
)

// FromUnits converts an integer amount expressed in the smallest unit of a
// currency with the given decimals to its human readable decimal.Decimal
// representation (ie. 1500000 with 6 decimals is 1.5).
func FromUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ToUnits converts a human readable amount (ie. "1.5") to its integer
// representation in the smallest unit of a currency with the given decimals.
// Amounts with more fractional digits than decimals are rejected rather than
// silently truncated.
func ToUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: must not be negative", amount)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf(
			"invalid amount %q: too many decimal places, max %d", amount, decimals,
		)
	}
	return shifted.BigInt(), nil
}

// Sum returns x_0 + x_1 + ... + x_n as a new big.Int. Nil values count as 0.
func Sum(values ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		if v != nil {
			total.Add(total, v)
		}
	}
	return total
}

// Copy returns a copy of x, or 0 if x is nil.
func Copy(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

// IsPositive returns whether x is strictly greater than 0.
func IsPositive(x *big.Int) bool {
	return x != nil && x.Sign() > 0
}

// Value returns the counter value of an amount of a currency given its unit
// price, ie. its USD value.
func Value(amount *big.Int, decimals uint8, unitPrice decimal.Decimal) decimal.Decimal {
	return FromUnits(amount, decimals).Mul(unitPrice)
}
