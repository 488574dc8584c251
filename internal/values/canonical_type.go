package values

import "fmt"

// TypeKind is the discriminant of a CanonicalType.
type TypeKind string

const (
	KUint      TypeKind = "uint"
	KInt       TypeKind = "int"
	KBool      TypeKind = "bool"
	KAddress   TypeKind = "address"
	KPubkey    TypeKind = "pubkey"
	KBech32    TypeKind = "bech32"
	KBytes     TypeKind = "bytes"
	KHash256   TypeKind = "hash256"
	KStr       TypeKind = "str"
	KTimestamp TypeKind = "timestamp"
	KDecimal   TypeKind = "decimal"
	KArray     TypeKind = "array"
	KTuple     TypeKind = "tuple"
)

// NamedType is one field of a CanonicalType tuple.
type NamedType struct {
	Name string
	Type CanonicalType
}

// CanonicalType describes the shape of one field, independent of the
// wire format any one chain uses to represent it. It maps
// deterministically to a chain's native ABI type (via the
// chain-specific decoders/encoders) and to a NormalizedValue variant.
type CanonicalType struct {
	Kind TypeKind

	// Uint/Int: bit width. EVM: 8..256 in multiples of 8. Solana: one of 8/16/32/64/128.
	Bits uint16

	// Address: which chain family's address rules apply (affects checksumming).
	Family ChainFamily

	// Bytes: 0 means dynamic-length bytes; 1..32 means bytesN.
	FixedLen int

	// Decimal: number of fractional digits, 0..38.
	Scale uint8

	// Array: element type and optional fixed length (0 = dynamic).
	Elem     *CanonicalType
	ArrayLen int

	// Tuple: named sub-fields, in declaration order.
	Fields []NamedType
}

func Uint(bits uint16) CanonicalType { return CanonicalType{Kind: KUint, Bits: bits} }
func Int(bits uint16) CanonicalType  { return CanonicalType{Kind: KInt, Bits: bits} }
func Bool() CanonicalType            { return CanonicalType{Kind: KBool} }
func Address(family ChainFamily) CanonicalType {
	return CanonicalType{Kind: KAddress, Family: family}
}
func Pubkey() CanonicalType  { return CanonicalType{Kind: KPubkey} }
func Bech32() CanonicalType  { return CanonicalType{Kind: KBech32} }
func Bytes() CanonicalType   { return CanonicalType{Kind: KBytes} }
func BytesN(n int) CanonicalType {
	return CanonicalType{Kind: KBytes, FixedLen: n}
}
func Hash256() CanonicalType   { return CanonicalType{Kind: KHash256} }
func Str() CanonicalType       { return CanonicalType{Kind: KStr} }
func Timestamp() CanonicalType { return CanonicalType{Kind: KTimestamp} }
func Decimal(scale uint8) CanonicalType {
	return CanonicalType{Kind: KDecimal, Scale: scale}
}
func Array(elem CanonicalType) CanonicalType {
	return CanonicalType{Kind: KArray, Elem: &elem}
}
func FixedArray(elem CanonicalType, length int) CanonicalType {
	return CanonicalType{Kind: KArray, Elem: &elem, ArrayLen: length}
}
func Tuple(fields ...NamedType) CanonicalType {
	return CanonicalType{Kind: KTuple, Fields: fields}
}

// IsDynamic reports whether the type has a variable-length wire
// encoding (matters for EVM head/tail layout and for Borsh, where
// only Bytes/Str/dynamic Array/Tuple-containing-dynamic are
// length-prefixed rather than fixed-width).
func (t CanonicalType) IsDynamic() bool {
	switch t.Kind {
	case KStr:
		return true
	case KBytes:
		return t.FixedLen == 0
	case KArray:
		if t.ArrayLen == 0 {
			return true
		}
		return t.Elem != nil && t.Elem.IsDynamic()
	case KTuple:
		for _, f := range t.Fields {
			if f.Type.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// String renders the canonical type using the CSDL grammar, e.g.
// "uint256", "address[]", "(uint64,bool)". EVM canonical event
// signatures are built with EVMTypeName, not String.
func (t CanonicalType) String() string {
	switch t.Kind {
	case KUint:
		return fmt.Sprintf("uint%d", t.Bits)
	case KInt:
		return fmt.Sprintf("int%d", t.Bits)
	case KBool:
		return "bool"
	case KAddress:
		return "address"
	case KPubkey:
		return "pubkey"
	case KBech32:
		return "bech32address"
	case KBytes:
		if t.FixedLen == 0 {
			return "bytes"
		}
		return fmt.Sprintf("bytes%d", t.FixedLen)
	case KHash256:
		return "hash256"
	case KStr:
		return "string"
	case KTimestamp:
		return "timestamp"
	case KDecimal:
		return fmt.Sprintf("decimal{decimals=%d}", t.Scale)
	case KArray:
		inner := ""
		if t.Elem != nil {
			inner = t.Elem.String()
		}
		if t.ArrayLen > 0 {
			return fmt.Sprintf("%s[%d]", inner, t.ArrayLen)
		}
		return inner + "[]"
	case KTuple:
		s := "("
		for i, f := range t.Fields {
			if i > 0 {
				s += ","
			}
			s += f.Type.String()
		}
		return s + ")"
	default:
		return "unknown"
	}
}

// EVMTypeName renders the type using Solidity ABI type names — used
// to build the canonical event(...) signature EVM fingerprints hash,
// and to bridge into go-ethereum's abi.Type machinery. Descriptive
// aliases like "hash256" or "bech32address" have no Solidity
// equivalent and are lowered to their underlying wire representation.
func (t CanonicalType) EVMTypeName() string {
	switch t.Kind {
	case KUint:
		return fmt.Sprintf("uint%d", t.Bits)
	case KInt:
		return fmt.Sprintf("int%d", t.Bits)
	case KBool:
		return "bool"
	case KAddress:
		return "address"
	case KHash256:
		return "bytes32"
	case KBytes:
		if t.FixedLen == 0 {
			return "bytes"
		}
		return fmt.Sprintf("bytes%d", t.FixedLen)
	case KStr:
		return "string"
	case KTimestamp:
		return "uint256"
	case KDecimal:
		return "uint256"
	case KArray:
		inner := ""
		if t.Elem != nil {
			inner = t.Elem.EVMTypeName()
		}
		if t.ArrayLen > 0 {
			return fmt.Sprintf("%s[%d]", inner, t.ArrayLen)
		}
		return inner + "[]"
	case KTuple:
		s := "("
		for i, f := range t.Fields {
			if i > 0 {
				s += ","
			}
			s += f.Type.EVMTypeName()
		}
		return s + ")"
	default:
		return "bytes"
	}
}
