package evm

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chaincodec/chaincodec/internal/values"
)

// abiValueToNormalized converts a value produced by go-ethereum's ABI
// unpacker (bool, uintN/intN as a fixed-width Go int or *big.Int,
// common.Address, [N]byte, []byte, string, slices/arrays, or an
// anonymous tuple struct) into the chain-agnostic NormalizedValue.
// go-ethereum's own reflection-built types vary with bit width, so
// this leans on reflect rather than enumerating every native Go type.
func abiValueToNormalized(v interface{}, ct values.CanonicalType) (values.Value, error) {
	switch ct.Kind {
	case values.KBool:
		b, ok := v.(bool)
		if !ok {
			return values.Value{}, fmt.Errorf("evm: expected bool, got %T", v)
		}
		return values.NewBool(b), nil

	case values.KUint, values.KTimestamp:
		n, err := toBigInt(v)
		if err != nil {
			return values.Value{}, err
		}
		if ct.Kind == values.KTimestamp {
			return values.NewTimestamp(n.Int64()), nil
		}
		return values.NewUintFromBig(n), nil

	case values.KDecimal:
		n, err := toBigInt(v)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewDecimalScaled(n, ct.Scale)

	case values.KInt:
		n, err := toBigInt(v)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewIntFromBig(n), nil

	case values.KAddress:
		addr, ok := v.(common.Address)
		if !ok {
			return values.Value{}, fmt.Errorf("evm: expected common.Address, got %T", v)
		}
		return values.NewAddress(addr.Hex()), nil

	case values.KHash256:
		b, err := fixedBytes(v, 32)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewHash256(fmt.Sprintf("0x%x", b)), nil

	case values.KBytes:
		if ct.FixedLen > 0 {
			b, err := fixedBytes(v, ct.FixedLen)
			if err != nil {
				return values.Value{}, err
			}
			return values.NewBytes(b), nil
		}
		b, ok := v.([]byte)
		if !ok {
			return values.Value{}, fmt.Errorf("evm: expected []byte, got %T", v)
		}
		return values.NewBytes(b), nil

	case values.KStr:
		s, ok := v.(string)
		if !ok {
			return values.Value{}, fmt.Errorf("evm: expected string, got %T", v)
		}
		return values.NewStr(s), nil

	case values.KArray:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return values.Value{}, fmt.Errorf("evm: expected slice/array, got %T", v)
		}
		out := make([]values.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elemVal, err := abiValueToNormalized(rv.Index(i).Interface(), *ct.Elem)
			if err != nil {
				return values.Value{}, fmt.Errorf("evm: array element %d: %w", i, err)
			}
			out[i] = elemVal
		}
		return values.NewArray(out), nil

	case values.KTuple:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Struct {
			return values.Value{}, fmt.Errorf("evm: expected tuple struct, got %T", v)
		}
		if rv.NumField() != len(ct.Fields) {
			return values.Value{}, fmt.Errorf("evm: tuple arity mismatch: struct has %d fields, type has %d", rv.NumField(), len(ct.Fields))
		}
		m := values.NewTupleMap()
		for i, f := range ct.Fields {
			fieldVal, err := abiValueToNormalized(rv.Field(i).Interface(), f.Type)
			if err != nil {
				return values.Value{}, fmt.Errorf("evm: tuple field %q: %w", f.Name, err)
			}
			m.Set(f.Name, fieldVal)
		}
		return values.NewTuple(m), nil

	default:
		return values.Value{}, fmt.Errorf("evm: canonical type %q has no EVM representation", ct.Kind)
	}
}

// toBigInt normalizes any of go-ethereum's width-dependent unpacked
// integer types (uint8/16/32/64, int8/16/32/64, *big.Int) into a
// single *big.Int for NewUintFromBig/NewIntFromBig to classify.
func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	default:
		return nil, fmt.Errorf("evm: unsupported integer representation %T", v)
	}
}

// fixedBytes extracts a byte slice from an [N]byte array (or plain
// []byte, defensively) and checks its length.
func fixedBytes(v interface{}, n int) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		if len(b) != n {
			return nil, fmt.Errorf("evm: expected %d bytes, got %d", n, len(b))
		}
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array || rv.Len() != n {
		return nil, fmt.Errorf("evm: expected [%d]byte, got %T", n, v)
	}
	out := make([]byte, n)
	reflect.Copy(reflect.ValueOf(out), rv)
	return out, nil
}
