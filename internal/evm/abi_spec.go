package evm

import (
	"encoding/json"
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chaincodec/chaincodec/internal/values"
)

// rawABIEntry mirrors the fields of one entry in a standard EVM ABI
// JSON array — the same shape the teacher's internal/source/evm
// abi_loader.go consumes, extended here with the recursive
// "components" needed for tuple params.
type rawABIEntry struct {
	Type    string        `json:"type"`
	Name    string        `json:"name"`
	Inputs  []rawABIParam `json:"inputs"`
	Anonymous bool        `json:"anonymous,omitempty"`
}

type rawABIParam struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Components []rawABIParam `json:"components,omitempty"`
	Indexed    bool          `json:"indexed,omitempty"`
}

// FunctionEntry is one parsed "function" ABI entry: its declared
// name, 4-byte selector, and ordered, named input fields.
type FunctionEntry struct {
	Name     string
	Selector [4]byte
	Inputs   []NamedField
}

// NamedField pairs a declared or synthesized parameter name with its
// canonical type.
type NamedField struct {
	Name string
	Type values.CanonicalType
}

// ABISpec is a parsed EVM ABI JSON document: a selector table for
// function decode/encode plus an optional constructor entry, per
// spec.md §4.4/§4.5.
type ABISpec struct {
	functions   map[[4]byte]*FunctionEntry
	byName      map[string]*FunctionEntry
	constructor *FunctionEntry
}

// ParseABI builds an ABISpec from a standard Solidity ABI JSON array.
func ParseABI(data []byte) (*ABISpec, error) {
	var entries []rawABIEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("evm: invalid ABI JSON: %w", err)
	}

	spec := &ABISpec{
		functions: make(map[[4]byte]*FunctionEntry),
		byName:    make(map[string]*FunctionEntry),
	}

	for _, e := range entries {
		switch e.Type {
		case "function":
			fe, err := buildFunctionEntry(e)
			if err != nil {
				return nil, err
			}
			spec.functions[fe.Selector] = fe
			spec.byName[fe.Name] = fe
		case "constructor":
			fe, err := buildFunctionEntry(rawABIEntry{Name: "constructor", Inputs: e.Inputs})
			if err != nil {
				return nil, err
			}
			spec.constructor = fe
		}
	}
	return spec, nil
}

func buildFunctionEntry(e rawABIEntry) (*FunctionEntry, error) {
	fields := make([]NamedField, len(e.Inputs))
	typeNames := make([]string, len(e.Inputs))
	for i, in := range e.Inputs {
		ct, err := abiParamToCanonical(in)
		if err != nil {
			return nil, fmt.Errorf("evm: function %q input %d: %w", e.Name, i, err)
		}
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		fields[i] = NamedField{Name: name, Type: ct}
		typeNames[i] = ct.EVMTypeName()
	}

	fe := &FunctionEntry{Name: e.Name, Inputs: fields}
	if e.Name != "constructor" {
		sig := fmt.Sprintf("%s(%s)", e.Name, joinComma(typeNames))
		copy(fe.Selector[:], crypto.Keccak256([]byte(sig))[:4])
	}
	return fe, nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

// abiParamToCanonical converts one ABI JSON parameter (including
// nested tuple components) into a CanonicalType. This is the JSON
// mirror of internal/csdl's grammar parser, grounded in the same
// Solidity type-name conventions.
func abiParamToCanonical(p rawABIParam) (values.CanonicalType, error) {
	if len(p.Components) > 0 {
		return tupleFromComponents(p)
	}
	// Not a tuple: parse the Solidity type string directly via
	// go-ethereum's own type parser, then translate its structural
	// shape back into CanonicalType.
	t, err := gethabi.NewType(p.Type, "", nil)
	if err != nil {
		return values.CanonicalType{}, err
	}
	return gethTypeToCanonical(t)
}

func tupleFromComponents(p rawABIParam) (values.CanonicalType, error) {
	base := p.Type
	arraySuffix := ""
	for len(base) > 0 && base[len(base)-1] == ']' {
		idx := lastTopLevelBracket(base)
		arraySuffix = base[idx:] + arraySuffix
		base = base[:idx]
	}

	fields := make([]values.NamedType, len(p.Components))
	for i, c := range p.Components {
		ct, err := abiParamToCanonical(c)
		if err != nil {
			return values.CanonicalType{}, err
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("field%d", i)
		}
		fields[i] = values.NamedType{Name: name, Type: ct}
	}
	tupleType := values.Tuple(fields...)
	return applyArraySuffixes(tupleType, arraySuffix)
}

func lastTopLevelBracket(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '[' {
			return i
		}
	}
	return len(s)
}

// applyArraySuffixes wraps elem in Array/FixedArray for each "[]" or
// "[N]" suffix found, outermost-last (matching Solidity's own
// left-to-right array-of-array reading order).
func applyArraySuffixes(elem values.CanonicalType, suffix string) (values.CanonicalType, error) {
	if suffix == "" {
		return elem, nil
	}
	var dims []string
	for len(suffix) > 0 {
		if suffix[0] != '[' {
			return values.CanonicalType{}, fmt.Errorf("evm: malformed array suffix %q", suffix)
		}
		end := 1
		for end < len(suffix) && suffix[end] != ']' {
			end++
		}
		dims = append(dims, suffix[1:end])
		suffix = suffix[end+1:]
	}
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == "" {
			elem = values.Array(elem)
		} else {
			n := 0
			for _, c := range dims[i] {
				n = n*10 + int(c-'0')
			}
			elem = values.FixedArray(elem, n)
		}
	}
	return elem, nil
}

// gethTypeToCanonical translates a parsed go-ethereum abi.Type back to
// CanonicalType for scalar and array-of-scalar shapes (tuples are
// handled separately in tupleFromComponents since abi.Type erases
// component names).
func gethTypeToCanonical(t gethabi.Type) (values.CanonicalType, error) {
	switch t.T {
	case gethabi.BoolTy:
		return values.Bool(), nil
	case gethabi.UintTy:
		return values.Uint(uint16(t.Size)), nil
	case gethabi.IntTy:
		return values.Int(uint16(t.Size)), nil
	case gethabi.AddressTy:
		return values.Address(values.FamilyEVM), nil
	case gethabi.StringTy:
		return values.Str(), nil
	case gethabi.BytesTy:
		return values.Bytes(), nil
	case gethabi.FixedBytesTy:
		return values.BytesN(t.Size), nil
	case gethabi.SliceTy:
		elem, err := gethTypeToCanonical(*t.Elem)
		if err != nil {
			return values.CanonicalType{}, err
		}
		return values.Array(elem), nil
	case gethabi.ArrayTy:
		elem, err := gethTypeToCanonical(*t.Elem)
		if err != nil {
			return values.CanonicalType{}, err
		}
		return values.FixedArray(elem, t.Size), nil
	default:
		return values.CanonicalType{}, fmt.Errorf("evm: unsupported ABI type %s", t.String())
	}
}
