package evm

import (
	"math/big"
	"reflect"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/values"
)

// fitUint narrows a validated non-negative *big.Int down to the exact
// Go integer width go-ethereum's PackValues expects for a given bit
// size: uint8/16/32/64 up to 64 bits, *big.Int (arbitrary width,
// packed as a 256-bit word) above that.
func fitUint(n *big.Int, bits uint16) interface{} {
	switch {
	case bits <= 8:
		return uint8(n.Uint64())
	case bits <= 16:
		return uint16(n.Uint64())
	case bits <= 32:
		return uint32(n.Uint64())
	case bits <= 64:
		return n.Uint64()
	default:
		return n
	}
}

func fitInt(n *big.Int, bits uint16) interface{} {
	switch {
	case bits <= 8:
		return int8(n.Int64())
	case bits <= 16:
		return int16(n.Int64())
	case bits <= 32:
		return int32(n.Int64())
	case bits <= 64:
		return n.Int64()
	default:
		return n
	}
}

func fixedByteArray(b []byte, n int) (interface{}, error) {
	if len(b) != n {
		return nil, &chain.OutOfRangeError{}
	}
	rt := reflect.ArrayOf(n, reflect.TypeOf(byte(0)))
	rv := reflect.New(rt).Elem()
	reflect.Copy(rv, reflect.ValueOf(b))
	return rv.Interface(), nil
}

// nativeArray converts a NormalizedValue array into the reflect slice
// go-ethereum expects for a dynamic-length ABI array parameter.
func nativeArray(vals []values.Value, elemType values.CanonicalType, index int) (interface{}, error) {
	abiElemType, err := canonicalToABIType(elemType)
	if err != nil {
		return nil, &chain.ValueTypeMismatchError{Index: index, Expected: elemType.EVMTypeName(), Got: "unrepresentable"}
	}
	goElemType := abiElemType.GetType()
	slice := reflect.MakeSlice(reflect.SliceOf(goElemType), len(vals), len(vals))
	for i, v := range vals {
		native, err := normalizedToABIValue(v, elemType, index)
		if err != nil {
			return nil, err
		}
		slice.Index(i).Set(reflect.ValueOf(native))
	}
	return slice.Interface(), nil
}

// nativeTuple builds the anonymous struct go-ethereum's abi package
// auto-generates for a tuple type (via reflect.StructOf, field order
// matching component declaration order) and populates it field by
// field from the schema's ordered TupleMap.
func nativeTuple(tup *values.TupleMap, fields []values.NamedType, index int) (interface{}, error) {
	structFields := make([]reflect.StructField, len(fields))
	natives := make([]interface{}, len(fields))

	for i, f := range fields {
		fv, ok := tup.Get(f.Name)
		if !ok {
			fv = values.Null()
		}
		native, err := normalizedToABIValue(fv, f.Type, index)
		if err != nil {
			return nil, err
		}
		natives[i] = native
		structFields[i] = reflect.StructField{
			Name: exportedFieldName(f.Name, i),
			Type: reflect.TypeOf(native),
		}
	}

	structType := reflect.StructOf(structFields)
	out := reflect.New(structType).Elem()
	for i, native := range natives {
		out.Field(i).Set(reflect.ValueOf(native))
	}
	return out.Interface(), nil
}

// exportedFieldName capitalizes a tuple field name into a valid
// exported Go struct field, falling back to a positional name for
// non-identifier or already-taken cases go-ethereum's own tuple
// unpacker also has to handle.
func exportedFieldName(name string, index int) string {
	if name == "" {
		return "Field" + itoa(index)
	}
	r := []rune(name)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}
