package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseUnits converts a decimal token amount to integer minor units at the
// given decimal count. Fractional dust beyond the token's precision rounds
// up, so an on-chain ceiling derived from it can never undershoot the quoted
// amount. Arithmetic is exact; no binary floating point is involved.
func ParseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Ceil().BigInt()
}

// FormatUnits converts integer minor units back to a decimal token amount.
func FormatUnits(wei *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Shift(-int32(decimals))
}

// FloorToUnit rounds wei down to the previous multiple of unit, stepping
// below the input first. The fee-collector contract refunds unused input, so
// shaving the ceiling this way only changes which side absorbs sub-unit
// rounding dust.
func FloorToUnit(wei *big.Int, unit int64) *big.Int {
	if unit <= 1 {
		return new(big.Int).Set(wei)
	}
	u := big.NewInt(unit)
	out := new(big.Int).Sub(wei, u)
	out.Div(out, u)
	out.Mul(out, u)
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}
