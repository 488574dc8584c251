package evm

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/chaincodec/chaincodec/internal/values"
)

// canonicalToMarshaling lowers a CanonicalType into go-ethereum's
// ArgumentMarshaling shape, the only form its abi.NewType accepts for
// tuples (a bare "(uint64,bool)" type string isn't parseable — nested
// component descriptors are required).
func canonicalToMarshaling(ct values.CanonicalType, name string) abi.ArgumentMarshaling {
	switch ct.Kind {
	case values.KTuple:
		comps := make([]abi.ArgumentMarshaling, len(ct.Fields))
		for i, f := range ct.Fields {
			comps[i] = canonicalToMarshaling(f.Type, f.Name)
		}
		return abi.ArgumentMarshaling{Name: name, Type: "tuple", Components: comps}
	case values.KArray:
		inner := canonicalToMarshaling(*ct.Elem, name)
		suffix := "[]"
		if ct.ArrayLen > 0 {
			suffix = arrayLenSuffix(ct.ArrayLen)
		}
		if inner.Type == "tuple" {
			return abi.ArgumentMarshaling{Name: name, Type: "tuple" + suffix, Components: inner.Components}
		}
		return abi.ArgumentMarshaling{Name: name, Type: inner.Type + suffix}
	default:
		return abi.ArgumentMarshaling{Name: name, Type: ct.EVMTypeName()}
	}
}

func arrayLenSuffix(n int) string {
	return "[" + itoa(n) + "]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// canonicalToABIType builds the go-ethereum abi.Type equivalent to a
// CanonicalType, so the decoder/encoder can lean on go-ethereum's own
// ABI head/tail machinery instead of reimplementing it.
func canonicalToABIType(ct values.CanonicalType) (abi.Type, error) {
	m := canonicalToMarshaling(ct, "")
	return abi.NewType(m.Type, "", m.Components)
}

// isValueType reports whether an abi.Type occupies exactly one 32-byte
// word — the EVM types eligible to be stored directly (not hashed) in
// an indexed topic slot: bool, intN/uintN, address, fixed bytesN.
func isValueType(t abi.Type) bool {
	switch t.T {
	case abi.BoolTy, abi.IntTy, abi.UintTy, abi.AddressTy, abi.FixedBytesTy:
		return true
	default:
		return false
	}
}
