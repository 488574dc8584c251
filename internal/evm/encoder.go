package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/values"
)

// EncodeCall implements spec.md §4.5: selector || abi_encode(tuple(values)).
// The output is required to round-trip through DecodeCall to equivalent
// NormalizedValues (modulo address checksum casing, since the decoder
// always emits checksummed addresses regardless of what was encoded).
func (s *ABISpec) EncodeCall(functionName string, vals []values.Value) ([]byte, error) {
	fe, ok := s.byName[functionName]
	if !ok {
		return nil, &chain.UnknownSelectorError{}
	}
	if len(vals) != len(fe.Inputs) {
		return nil, &chain.ArityMismatchError{Expected: len(fe.Inputs), Got: len(vals)}
	}

	args := make(abi.Arguments, len(fe.Inputs))
	nativeVals := make([]interface{}, len(fe.Inputs))
	for i, f := range fe.Inputs {
		abiType, err := canonicalToABIType(f.Type)
		if err != nil {
			return nil, &chain.ValueTypeMismatchError{Index: i, Expected: f.Type.EVMTypeName(), Got: "unrepresentable"}
		}
		args[i] = abi.Argument{Name: f.Name, Type: abiType}

		native, err := normalizedToABIValue(vals[i], f.Type, i)
		if err != nil {
			return nil, err
		}
		nativeVals[i] = native
	}

	packed, err := args.Pack(nativeVals...)
	if err != nil {
		return nil, &chain.AbiDecodeFailedError{Reason: err.Error()}
	}

	out := make([]byte, 0, 4+len(packed))
	out = append(out, fe.Selector[:]...)
	out = append(out, packed...)
	return out, nil
}

// normalizedToABIValue is the inverse of abiValueToNormalized: it
// projects a NormalizedValue back onto the native Go representation
// go-ethereum's abi.Arguments.PackValues expects for a given
// CanonicalType, validating range and kind along the way.
func normalizedToABIValue(v values.Value, ct values.CanonicalType, index int) (interface{}, error) {
	switch ct.Kind {
	case values.KBool:
		b, ok := v.Bool()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "bool", Got: string(v.Kind)}
		}
		return b, nil

	case values.KUint, values.KTimestamp, values.KDecimal:
		var n *big.Int
		if ct.Kind == values.KTimestamp {
			ts, ok := v.Timestamp()
			if !ok {
				return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "timestamp", Got: string(v.Kind)}
			}
			n = big.NewInt(ts)
		} else {
			var ok bool
			n, ok = v.BigInt()
			if !ok {
				return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "uint", Got: string(v.Kind)}
			}
		}
		bits := ct.Bits
		if bits == 0 {
			bits = 256
		}
		if n.Sign() < 0 || n.BitLen() > int(bits) {
			return nil, &chain.OutOfRangeError{Index: index}
		}
		return fitUint(n, bits), nil

	case values.KInt:
		n, ok := v.BigInt()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "int", Got: string(v.Kind)}
		}
		bits := ct.Bits
		if bits == 0 {
			bits = 256
		}
		max := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		min := new(big.Int).Neg(max)
		if n.Cmp(min) < 0 || n.Cmp(new(big.Int).Sub(max, big.NewInt(1))) > 0 {
			return nil, &chain.OutOfRangeError{Index: index}
		}
		return fitInt(n, bits), nil

	case values.KAddress:
		s, ok := v.Str()
		if !ok || !common.IsHexAddress(s) {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "address", Got: string(v.Kind)}
		}
		return common.HexToAddress(s), nil

	case values.KHash256:
		s, ok := v.Str()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "hash256", Got: string(v.Kind)}
		}
		var arr [32]byte
		copy(arr[:], common.FromHex(s))
		return arr, nil

	case values.KBytes:
		b, ok := v.Bytes()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "bytes", Got: string(v.Kind)}
		}
		if ct.FixedLen == 0 {
			return b, nil
		}
		return fixedByteArray(b, ct.FixedLen)

	case values.KStr:
		str, ok := v.Str()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "string", Got: string(v.Kind)}
		}
		return str, nil

	case values.KArray:
		arr, ok := v.Array()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "array", Got: string(v.Kind)}
		}
		if ct.ArrayLen > 0 && len(arr) != ct.ArrayLen {
			return nil, &chain.OutOfRangeError{Index: index}
		}
		return nativeArray(arr, *ct.Elem, index)

	case values.KTuple:
		tup, ok := v.Tuple()
		if !ok {
			return nil, &chain.ValueTypeMismatchError{Index: index, Expected: "tuple", Got: string(v.Kind)}
		}
		return nativeTuple(tup, ct.Fields, index)

	default:
		return nil, &chain.ValueTypeMismatchError{Index: index, Expected: string(ct.Kind), Got: "unrepresentable"}
	}
}
