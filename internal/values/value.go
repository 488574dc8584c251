package values

import (
	"math/big"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the discriminant of a NormalizedValue.
type Kind string

const (
	VUint      Kind = "uint"
	VBigUint   Kind = "biguint"
	VInt       Kind = "int"
	VBigInt    Kind = "bigint"
	VBool      Kind = "bool"
	VBytes     Kind = "bytes"
	VStr       Kind = "str"
	VAddress   Kind = "address"
	VPubkey    Kind = "pubkey"
	VBech32    Kind = "bech32"
	VHash256   Kind = "hash256"
	VTimestamp Kind = "timestamp"
	VArray     Kind = "array"
	VTuple     Kind = "tuple"
	VNull      Kind = "null"
)

// maxU128 and the signed int128 bounds are the boundary spec.md draws
// between the fixed-width Uint/Int variants and the decimal-string
// BigUint/BigInt variants.
var (
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxI127 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI127 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// TupleMap is the ordered name->Value map backing NormalizedValue.Tuple
// and DecodedEvent.Fields. Field order is load-bearing (spec.md §9),
// so a plain Go map is never used for it.
type TupleMap = orderedmap.OrderedMap[string, Value]

// NewTupleMap constructs an empty, ordered field map.
func NewTupleMap() *TupleMap {
	return orderedmap.New[string, Value]()
}

// Value is the tagged sum NormalizedValue described in spec.md §3.
// Go has no native sum type, so Value is a struct carrying exactly
// the fields relevant to Kind; callers should always branch on Kind
// before reading a payload field.
type Value struct {
	Kind Kind

	num   *big.Int // Uint, BigUint, Int, BigInt
	b     bool     // Bool
	bytes []byte   // Bytes
	str   string   // Str, Address, Pubkey, Bech32, Hash256
	ts    int64    // Timestamp
	arr   []Value  // Array
	tup   *TupleMap
}

// NewUintFromBig builds a Uint or BigUint depending on magnitude, per
// invariant 6: Uint iff the value fits in 128 unsigned bits.
func NewUintFromBig(n *big.Int) Value {
	if n.Sign() < 0 {
		n = new(big.Int).Abs(n)
	}
	if n.Cmp(maxU128) <= 0 {
		return Value{Kind: VUint, num: new(big.Int).Set(n)}
	}
	return Value{Kind: VBigUint, num: new(big.Int).Set(n)}
}

// NewUint64 wraps a native uint64 (always fits in 128 bits).
func NewUint64(n uint64) Value {
	return Value{Kind: VUint, num: new(big.Int).SetUint64(n)}
}

// NewIntFromBig builds an Int or BigInt depending on magnitude.
func NewIntFromBig(n *big.Int) Value {
	if n.Cmp(minI127) >= 0 && n.Cmp(maxI127) <= 0 {
		return Value{Kind: VInt, num: new(big.Int).Set(n)}
	}
	return Value{Kind: VBigInt, num: new(big.Int).Set(n)}
}

func NewInt64(n int64) Value {
	return Value{Kind: VInt, num: big.NewInt(n)}
}

func NewBool(b bool) Value             { return Value{Kind: VBool, b: b} }
func NewBytes(b []byte) Value          { return Value{Kind: VBytes, bytes: append([]byte(nil), b...)} }
func NewStr(s string) Value            { return Value{Kind: VStr, str: s} }
func NewAddress(checksummed string) Value { return Value{Kind: VAddress, str: checksummed} }
func NewPubkey(base58 string) Value    { return Value{Kind: VPubkey, str: base58} }
func NewBech32(s string) Value         { return Value{Kind: VBech32, str: s} }
func NewHash256(hex0x string) Value    { return Value{Kind: VHash256, str: hex0x} }
func NewTimestamp(unixSeconds int64) Value { return Value{Kind: VTimestamp, ts: unixSeconds} }
func NewArray(vals []Value) Value      { return Value{Kind: VArray, arr: vals} }
func NewTuple(m *TupleMap) Value       { return Value{Kind: VTuple, tup: m} }
func Null() Value                      { return Value{Kind: VNull} }

func (v Value) IsNull() bool { return v.Kind == VNull }

// BigInt returns the underlying integer for Uint/BigUint/Int/BigInt
// kinds, or (nil, false) otherwise.
func (v Value) BigInt() (*big.Int, bool) {
	switch v.Kind {
	case VUint, VBigUint, VInt, VBigInt:
		return v.num, true
	default:
		return nil, false
	}
}

// DecimalString renders a Uint/BigUint/Int/BigInt as base-10 digits
// with no leading zeros other than a bare "0" — the wire form
// spec.md §3 requires for BigUint/BigInt.
func (v Value) DecimalString() (string, bool) {
	if v.num == nil {
		return "", false
	}
	return v.num.String(), true
}

func (v Value) Bool() (bool, bool) {
	if v.Kind != VBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Bytes() ([]byte, bool) {
	if v.Kind != VBytes {
		return nil, false
	}
	return v.bytes, true
}

func (v Value) Str() (string, bool) {
	switch v.Kind {
	case VStr, VAddress, VPubkey, VBech32, VHash256:
		return v.str, true
	default:
		return "", false
	}
}

func (v Value) Timestamp() (int64, bool) {
	if v.Kind != VTimestamp {
		return 0, false
	}
	return v.ts, true
}

func (v Value) Array() ([]Value, bool) {
	if v.Kind != VArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) Tuple() (*TupleMap, bool) {
	if v.Kind != VTuple {
		return nil, false
	}
	return v.tup, true
}
