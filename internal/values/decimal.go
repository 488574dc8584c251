package values

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DecimalFromScaledInt interprets the raw unscaled integer a
// chain-specific decoder read off the wire (e.g. an EVM uint256 or a
// Borsh u64) as a fixed-point decimal.Decimal at the schema's declared
// scale.
func DecimalFromScaledInt(raw *big.Int, scale uint8) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -int32(scale))
}

// ScaledIntFromDecimal is the inverse: it turns a decimal.Decimal back
// into the unscaled integer a chain's wire format expects.
func ScaledIntFromDecimal(d decimal.Decimal, scale uint8) *big.Int {
	scaled := d.Shift(int32(scale))
	return scaled.BigInt()
}

// NewDecimalScaled builds the Value for a CanonicalType{Kind: KDecimal}
// field from the raw unscaled integer a chain-specific decoder read
// off the wire and the schema's declared scale. It round-trips raw
// through decimal.Decimal (DecimalFromScaledInt/ScaledIntFromDecimal)
// so a scale that cannot losslessly reproduce raw is caught here
// rather than silently propagating a wrong value; the Value itself
// still carries the unscaled integer, per the Uint/BigUint wire
// contract of spec.md §6 (NormalizedValue has no separate "decimal"
// tag).
func NewDecimalScaled(raw *big.Int, scale uint8) (Value, error) {
	d := DecimalFromScaledInt(raw, scale)
	if back := ScaledIntFromDecimal(d, scale); back.Cmp(raw) != 0 {
		return Value{}, fmt.Errorf("decimal scale %d does not round-trip value %s", scale, raw.String())
	}
	return NewUintFromBig(raw), nil
}
